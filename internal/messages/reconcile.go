package messages

// File reconciliation messages.
const (
	ReconcileSkipAbsent        = "manifest path absent from install; skipping"
	ReconcilePreserved         = "preserved path"
	ReconcileRestored          = "restored path"
	ReconcilePreserveFmt       = "preserve %s: %v"
	ReconcileRestoreFmt        = "restore %s: %v"
	ReconcileReleaseMissingFmt = "staged release tree %s is missing: %v"
	ReconcileRemoveOldFmt      = "remove old install tree %s: %v"
	ReconcilePlaceNewFmt       = "place new release at %s: %v"
	ReconcileCleanStagingFmt   = "remove staging tree %s after copy: %v"
	ReconcileLookupUserFmt     = "look up user %q: %v"
	ReconcileLookupGroupFmt    = "look up group %q: %v"
	ReconcileOwnershipWalkFmt  = "walk %s: %v"
	ReconcileChownFmt          = "chown %s: %v"
	ReconcileChmodFmt          = "chmod %s: %v"
)
