package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Branch errors
	CodeBranchNameEmpty              Code = "BRANCH_NAME_EMPTY"
	CodeBranchNameInvalid            Code = "BRANCH_NAME_INVALID"
	CodeBranchNameTaken              Code = "BRANCH_NAME_TAKEN"
	CodeBranchInvalidType            Code = "BRANCH_INVALID_TYPE"
	CodeBranchMainHasBase            Code = "BRANCH_MAIN_HAS_BASE"
	CodeBranchEmptyOwner             Code = "BRANCH_EMPTY_OWNER"
	CodeBranchSelfReference          Code = "BRANCH_SELF_REFERENCE"
	CodeBranchBaseCycle              Code = "BRANCH_BASE_CYCLE"
	CodeBranchInvalidStateTransition Code = "BRANCH_INVALID_STATE_TRANSITION"
	CodeBranchNotFound               Code = "BRANCH_NOT_FOUND"

	// Commit errors
	CodeCommitEmptyBranchID  Code = "COMMIT_EMPTY_BRANCH_ID"
	CodeCommitEmptyState     Code = "COMMIT_EMPTY_STATE"
	CodeCommitParentNotFound Code = "COMMIT_PARENT_NOT_FOUND"
	CodeCommitParentMismatch Code = "COMMIT_PARENT_BRANCH_MISMATCH"
	CodeCommitRootExists     Code = "COMMIT_ROOT_EXISTS"
	CodeCommitRevertRoot     Code = "COMMIT_REVERT_ROOT"
	CodeCommitNotFound       Code = "COMMIT_NOT_FOUND"

	// Change errors
	CodeChangeEmptyFieldName Code = "CHANGE_EMPTY_FIELD_NAME"
	CodeChangeEmptyEntityID  Code = "CHANGE_EMPTY_ENTITY_ID"

	// Traversal errors
	CodeGraphCorrupt Code = "GRAPH_CORRUPT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeBranchNameEmpty,
		CodeBranchNameInvalid,
		CodeBranchInvalidType,
		CodeBranchMainHasBase,
		CodeBranchEmptyOwner,
		CodeBranchSelfReference,
		CodeBranchBaseCycle,
		CodeCommitEmptyBranchID,
		CodeCommitEmptyState,
		CodeCommitParentMismatch,
		CodeChangeEmptyFieldName,
		CodeChangeEmptyEntityID:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeBranchInvalidStateTransition,
		CodeCommitRootExists,
		CodeCommitRevertRoot:
		return codes.FailedPrecondition

	// AlreadyExists - uniqueness violations
	case CodeBranchNameTaken:
		return codes.AlreadyExists

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeBranchNotFound,
		CodeCommitNotFound,
		CodeCommitParentNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
