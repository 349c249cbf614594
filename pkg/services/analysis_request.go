package services

import (
	"github.com/ekaya-inc/milestone-gateway/pkg/jsonutil"
)

// VideoUpload is an uploaded video file.
type VideoUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// AnalysisRequest is the raw input to the analysis pipeline.
type AnalysisRequest struct {
	// MilestoneID is the value as sent by the caller: a form string, a JSON
	// number or nil when absent.
	MilestoneID any
	// Video is nil when the part was missing, not a file or too large.
	Video *VideoUpload
}

// ValidatedRequest is an AnalysisRequest that passed validation.
type ValidatedRequest struct {
	MilestoneID int64
	Video       VideoUpload
}

// ValidateAnalysisRequest checks the video then the milestone id.
// An empty file counts as missing.
func ValidateAnalysisRequest(req *AnalysisRequest) (*ValidatedRequest, error) {
	if req == nil || req.Video == nil || len(req.Video.Data) == 0 {
		return nil, newAnalysisError(KindInvalidInput, StageReceived, MsgInvalidVideo, nil)
	}

	if req.MilestoneID == nil {
		return nil, newAnalysisError(KindInvalidInput, StageReceived, MsgInvalidMilestoneID, nil)
	}
	milestoneID, err := jsonutil.FlexibleInt64(req.MilestoneID)
	if err != nil {
		return nil, newAnalysisError(KindInvalidInput, StageReceived, MsgInvalidMilestoneID, err)
	}

	return &ValidatedRequest{
		MilestoneID: milestoneID,
		Video:       *req.Video,
	}, nil
}
