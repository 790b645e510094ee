package formatter

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
	"github.com/penwyp/go-ru-analyzer/internal/util"
)

// FormatCorrelation renders a dual-stream correlation report to stdout.
// JSON goes through the same serializer as the result exports; every other
// format name gets the text layout.
func FormatCorrelation(report *model.CorrelationReport, format string) error {
	if format == "json" {
		data, err := sonic.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = os.Stdout.Write(data)
		return err
	}

	tp := util.GetTimeProvider()

	fmt.Println(util.FormatHeaderTitle("Cross-Unit Correlation"))
	fmt.Println(util.FormatSectionSeparator())
	fmt.Printf("Run: %s\n", report.RunID)
	if report.PrimaryFile != "" {
		fmt.Printf("Primary:   %s\nSecondary: %s\n", report.PrimaryFile, report.SecondaryFile)
	}
	fmt.Println()

	if s := report.Speed; s != nil {
		fmt.Println(util.FormatDataTitle("Speed:"))
		fmt.Printf("  Matched: %d    Unmatched primary: %d\n", s.MatchCount, s.UnmatchedPrimary)
		if s.MatchCount > 0 {
			fmt.Printf("  Difference avg: %.2f km/h    max: %.2f km/h    stddev: %.2f km/h\n",
				s.AvgDifference, s.MaxDifference, s.StdDifference)
		}
		if len(s.AbnormalPoints) > 0 {
			fmt.Printf("  Abnormal pairings: %s\n", util.FormatAlertText(fmt.Sprintf("%d", len(s.AbnormalPoints))))
			for _, p := range s.AbnormalPoints {
				fmt.Printf("    %s  %.1f vs %.1f km/h (diff %+.1f)\n",
					tp.Format(p.Time, "15:04:05"), p.PrimarySpeed, p.SecondarySpeed, p.Difference)
			}
		}
		fmt.Println()
	}

	if e := report.Events; e != nil {
		fmt.Println(util.FormatDataTitle("Events:"))
		fmt.Printf("  Pairs: %d    Correlation rate: %.1f%%\n", len(e.Pairs), e.CorrelationRate*100)
		for _, pair := range e.Pairs {
			fmt.Printf("    %s  %s <-> %s (%+.1fs)\n",
				tp.Format(pair.Time, "15:04:05"), pair.Primary.Type, pair.Secondary.Type, pair.TimeDiff)
		}
		if len(e.UnmatchedPrimary) > 0 {
			fmt.Printf("  Unmatched primary events: %d\n", len(e.UnmatchedPrimary))
		}
		if len(e.UnmatchedSecondary) > 0 {
			fmt.Printf("  Unmatched secondary events: %d\n", len(e.UnmatchedSecondary))
		}
		fmt.Println()
	}

	if c := report.Consistency; c != nil {
		fmt.Println(util.FormatDataTitle("Consistency:"))
		fmt.Printf("  Primary span:   %s - %s\n",
			tp.Format(c.PrimarySpan.Start, "15:04:05"), tp.Format(c.PrimarySpan.End, "15:04:05"))
		fmt.Printf("  Secondary span: %s - %s\n",
			tp.Format(c.SecondarySpan.Start, "15:04:05"), tp.Format(c.SecondarySpan.End, "15:04:05"))
		if c.OverlapStart.After(c.OverlapEnd) {
			fmt.Printf("  Overlap: %s\n", util.FormatAlertText("none"))
		} else {
			fmt.Printf("  Overlap: %s - %s\n",
				tp.Format(c.OverlapStart, "15:04:05"), tp.Format(c.OverlapEnd, "15:04:05"))
		}
		printGaps := func(name string, gaps []model.TimeGap) {
			if len(gaps) == 0 {
				return
			}
			fmt.Printf("  %s coverage gaps: %d\n", name, len(gaps))
			for _, g := range gaps {
				fmt.Printf("    %s - %s (%s)\n",
					tp.Format(g.Start, "15:04:05"), tp.Format(g.End, "15:04:05"), util.FormatSeconds(g.Duration))
			}
		}
		printGaps("Primary", c.PrimaryGaps)
		printGaps("Secondary", c.SecondaryGaps)
	}

	fmt.Println(util.FormatSectionSeparator())
	return nil
}
