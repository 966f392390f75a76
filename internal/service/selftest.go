package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/session"
	"github.com/rs/zerolog"
)

var ErrSelfTest = errors.New("service: self-test failed")

// SelfTest runs the demo script against the given variant in both regions and
// checks every command was served and the whole script was consumed.
func SelfTest(ctx context.Context, variant cic.Variant, logger zerolog.Logger) ([]session.Report, error) {
	want := session.CommandCounts{Compare: 1, Variant: 1, Reset: 1, Die: 1}
	reports := make([]session.Report, 0, 2)
	for _, region := range []cic.Region{cic.NTSC, cic.PAL} {
		backend := NewSimBackend(region)
		lines, lost := backend.Attach()
		sess, err := session.New(session.Config{
			Region:  region,
			Variant: variant,
			Lines:   lines,
			Cancel:  lost,
			Logger:  logger,
		})
		if err != nil {
			return reports, err
		}
		report := sess.Run(ctx)
		reports = append(reports, report)

		host := backend.Last()
		switch {
		case report.Reason != session.ReasonDie:
			return reports, fmt.Errorf("%w: %s ended %q in %s", ErrSelfTest, region, report.Reason, report.EndedIn)
		case report.Commands != want:
			return reports, fmt.Errorf("%w: %s served %+v", ErrSelfTest, region, report.Commands)
		case host.Remaining() != 0:
			return reports, fmt.Errorf("%w: %s left %d script bits", ErrSelfTest, region, host.Remaining())
		}
		logger.Info().
			Stringer("region", region).
			Str("variant", variant.Name).
			Uint64("bits_out", report.BitsOut).
			Msg("self-test passed")
	}
	return reports, nil
}
