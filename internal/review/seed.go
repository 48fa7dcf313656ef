package review

import (
	"context"
	"fmt"

	"github.com/captainbotgit/mission-control/internal/models"
)

// SampleDrafts are the reviews inserted by Seed.
var SampleDrafts = []models.ReviewDraft{
	{
		Title:       "Video worker retry fixes",
		Description: "Retry wrapper and request validation for the render workers",
		Type:        models.TypeDocument,
		Content: `# Video worker retry fixes

## Changes
- Wrap every external render call in a bounded retry
- Validate generate requests before queueing
- Add animated caption styles

## Risk
Medium. Touches the core render pipeline.`,
		SubmittedBy:         "forge",
		Priority:            models.PriorityHigh,
		Tags:                []string{"code", "launch-critical"},
		Recommendation:      models.StatusApproved,
		RecommendationNotes: "Covers every item from the audit.",
	},
	{
		Title:       "Social scheduling pipeline",
		Description: "Automated posting through a queue service with a direct API fallback",
		Type:        models.TypeDocument,
		Content: `# Social scheduling pipeline

1. Drop content into the shared folder
2. The filename encodes platform and post time
3. Posts route to the queue service or the direct API
4. A chat notification reports success or failure`,
		SubmittedBy:         "forge",
		Priority:            models.PriorityMedium,
		Tags:                []string{"automation", "social"},
		Recommendation:      models.StatusApproved,
		RecommendationNotes: "Free queue tier may cap volume.",
	},
	{
		Title:       "Mission Control dashboard refresh",
		Description: "Live task board, cron calendar and review portal",
		Type:        models.TypeWebsite,
		PreviewURL:  "https://mission-control.example.com",
		SubmittedBy: "forge",
		Priority:    models.PriorityHigh,
		Tags:        []string{"dashboard", "infrastructure"},
	},
	{
		Title:               "Clinic onboarding demo site",
		Description:         "Static demo site for provider onboarding",
		Type:                models.TypeWebsite,
		PreviewURL:          "https://clinic-demo.example.com",
		SubmittedBy:         "forge",
		Priority:            models.PriorityMedium,
		Tags:                []string{"demo", "static"},
		Recommendation:      models.StatusApproved,
		RecommendationNotes: "Ready for a client preview.",
	},
	{
		Title:       "Token swap CLI specification",
		Description: "Command line swaps with hard spending caps",
		Type:        models.TypeDocument,
		Content: "# Token swap CLI\n\n- Max single trade: $50\n- Daily cap: $100\n- Dry run unless `--execute`\n\n" +
			"```bash\nswap balance\nswap 10 USDC WETH --execute\n```",
		SubmittedBy: "forge",
		Priority:    models.PriorityLow,
		Tags:        []string{"trading", "spec"},
	},
}

// SeedResult lists the reviews Seed created.
type SeedResult struct {
	Created int      `json:"created"`
	IDs     []string `json:"ids"`
}

// Seed inserts SampleDrafts when no review is pending. Sample preview URLs
// are not probed.
func (s *Service) Seed(ctx context.Context) (*SeedResult, error) {
	pending := s.List(ctx, Filter{Status: models.StatusPending})
	if pending.Source == SourceNone {
		return nil, ErrUnavailable
	}
	if len(pending.Reviews) > 0 {
		return nil, ErrPendingExist
	}

	res := &SeedResult{IDs: make([]string, 0, len(SampleDrafts))}
	for _, draft := range SampleDrafts {
		normalizeDraft(&draft)
		if err := validateDraft(draft); err != nil {
			return nil, fmt.Errorf("sample %q: %w", draft.Title, err)
		}
		item, err := s.insert(ctx, draft)
		if err != nil {
			return nil, err
		}
		res.IDs = append(res.IDs, item.ID)
	}
	res.Created = len(res.IDs)
	return res, nil
}
