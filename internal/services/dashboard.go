package services

import (
	"context"
	"log"

	"sitepulse/internal/stats"
)

// GetDashboard computes a fresh aggregation snapshot
func (s *InteractionService) GetDashboard(ctx context.Context) (*Envelope, error) {
	var snap *stats.Snapshot
	err := s.run(ctx, "dashboard.snapshot", func(ctx context.Context) (err error) {
		snap, err = s.stats.Snapshot(ctx)
		return err
	})
	if err != nil {
		return nil, translate("DASHBOARD", "dashboard.snapshot", err, "")
	}

	log.Printf("[DASHBOARD] Snapshot: contacts=%d, conversations=%d, feedback=%d",
		snap.Contacts.Total, snap.Conversations.Total, snap.Feedback.Total)
	return ok(snap), nil
}
