package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeBranchNameEmpty              = "BRANCH_NAME_EMPTY"
	CodeBranchNameInvalid            = "BRANCH_NAME_INVALID"
	CodeBranchNameTaken              = "BRANCH_NAME_TAKEN"
	CodeBranchInvalidType            = "BRANCH_INVALID_TYPE"
	CodeBranchMainHasBase            = "BRANCH_MAIN_HAS_BASE"
	CodeBranchEmptyOwner             = "BRANCH_EMPTY_OWNER"
	CodeBranchSelfReference          = "BRANCH_SELF_REFERENCE"
	CodeBranchBaseCycle              = "BRANCH_BASE_CYCLE"
	CodeBranchInvalidStateTransition = "BRANCH_INVALID_STATE_TRANSITION"
	CodeBranchNotFound               = "BRANCH_NOT_FOUND"
	CodeCommitEmptyBranchID          = "COMMIT_EMPTY_BRANCH_ID"
	CodeCommitEmptyState             = "COMMIT_EMPTY_STATE"
	CodeCommitParentNotFound         = "COMMIT_PARENT_NOT_FOUND"
	CodeCommitParentMismatch         = "COMMIT_PARENT_BRANCH_MISMATCH"
	CodeCommitRootExists             = "COMMIT_ROOT_EXISTS"
	CodeCommitRevertRoot             = "COMMIT_REVERT_ROOT"
	CodeCommitNotFound               = "COMMIT_NOT_FOUND"
	CodeChangeEmptyFieldName         = "CHANGE_EMPTY_FIELD_NAME"
	CodeChangeEmptyEntityID          = "CHANGE_EMPTY_ENTITY_ID"
	CodeGraphCorrupt                 = "GRAPH_CORRUPT"
	CodeNotFound                     = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Branch errors
		CodeBranchNameEmpty:              "Branch name cannot be empty",
		CodeBranchNameInvalid:            "Branch name cannot contain whitespace",
		CodeBranchNameTaken:              "A branch named {{.Name}} already exists for this entity",
		CodeBranchInvalidType:            "Invalid branch type specified",
		CodeBranchMainHasBase:            "A main branch cannot have a base branch",
		CodeBranchEmptyOwner:             "Owner entity ID is required for branch",
		CodeBranchSelfReference:          "A branch cannot use itself as its base",
		CodeBranchBaseCycle:              "Setting this base would create a cycle in the branch lineage",
		CodeBranchInvalidStateTransition: "Cannot transition branch from {{.FromState}} to {{.ToState}}",
		CodeBranchNotFound:               "The requested branch was not found",

		// Commit errors
		CodeCommitEmptyBranchID:  "Branch ID is required for commit",
		CodeCommitEmptyState:     "Commit state snapshot is required",
		CodeCommitParentNotFound: "Parent commit was not found",
		CodeCommitParentMismatch: "Parent commit belongs to a different lineage",
		CodeCommitRootExists:     "This branch already has a root commit",
		CodeCommitRevertRoot:     "A root commit cannot be reverted",
		CodeCommitNotFound:       "The requested commit was not found",

		// Change errors
		CodeChangeEmptyFieldName: "Change field name cannot be empty",
		CodeChangeEmptyEntityID:  "Change entity ID cannot be empty",

		// Traversal errors
		CodeGraphCorrupt: "The version graph is inconsistent and cannot be traversed",

		// Storage errors
		CodeNotFound: "The requested resource was not found",
	},
}
