package model

// MergeProgress turns a successful poll into a patch. Only the fields the vendor
// returned are written. ErrorCount is never reset here: a job that failed
// repeatedly stays close to its ceiling even after polls start succeeding.
func MergeProgress(p PPTProgress) PPTJobPatch {
	progress := p.Progress
	patch := PPTJobPatch{Progress: &progress}
	if p.PPTURL != nil {
		v := *p.PPTURL
		patch.PPTURL = &v
	}
	if p.ErrMsg != nil {
		v := *p.ErrMsg
		patch.ErrMsg = &v
	}
	if progress == ProgressComplete {
		done := PPTJobDone
		patch.Status = &done
	}
	return patch
}

// MergeFailure turns a failed poll into a patch: one more error, and the job
// is marked failed once the count reaches maxErrors.
func MergeFailure(job *PPTJob, maxErrors int) PPTJobPatch {
	n := job.ErrorCount + 1
	patch := PPTJobPatch{ErrorCount: &n}
	if maxErrors > 0 && n >= maxErrors {
		failed := PPTJobFailed
		patch.Status = &failed
	}
	return patch
}
