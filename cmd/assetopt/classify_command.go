package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"assetopt/internal/classify"
	"assetopt/internal/report"
)

type classification struct {
	Name         string            `json:"name"`
	Category     classify.Category `json:"category"`
	Media        classify.Media    `json:"media,omitempty"`
	Supported    bool              `json:"supported"`
	Rule         int               `json:"rule"`
	MaxDimension int               `json:"max_dimension,omitempty"`
	Quality      string            `json:"quality,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify NAME...",
		Short: "Show the category and quality tier chosen for file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := ctx.newRunner(false)
			if err != nil {
				return err
			}
			classifier := runner.Classifier()
			pol := runner.Policy()

			results := make([]classification, 0, len(args))
			for _, name := range args {
				category, rule := classifier.Explain(name)
				media := classify.MediaOf(name)
				entry := classification{
					Name:      name,
					Category:  category,
					Media:     media,
					Supported: classify.Supported(name),
					Rule:      rule,
				}
				tier := pol.SelectQuality(category)
				switch media {
				case classify.MediaImage:
					entry.MaxDimension = pol.MaxDimension(category)
					entry.Quality = fmt.Sprintf("quality %d-%d, %d colors", tier.Image.QualityMin, tier.Image.QualityMax, tier.Image.MaxColors)
				case classify.MediaAudio:
					entry.Quality = describeAudio(tier.Audio.Codec, tier.Audio.Level, tier.Audio.Channels, tier.Audio.SampleRate)
				}
				results = append(results, entry)
			}

			return render(cmd, ctx, results, func() error {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rule := "fallback"
					if r.Rule >= 0 {
						rule = "#" + strconv.Itoa(r.Rule+1)
					}
					maxDim := ""
					if r.MaxDimension > 0 {
						maxDim = strconv.Itoa(r.MaxDimension)
					}
					quality := r.Quality
					if !r.Supported {
						quality = "unsupported extension"
					}
					rows = append(rows, []string{r.Name, report.CategoryLabel(string(r.Category)), rule, maxDim, quality})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable("",
					[]string{"Name", "Category", "Rule", "Max Dimension", "Quality"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func describeAudio(codec string, level, channels, sampleRate int) string {
	parts := []string{codec}
	if level > 0 {
		parts = append(parts, "level "+strconv.Itoa(level))
	}
	switch channels {
	case 1:
		parts = append(parts, "mono")
	case 2:
		parts = append(parts, "stereo")
	}
	if sampleRate > 0 {
		parts = append(parts, strconv.Itoa(sampleRate)+" Hz")
	}
	return strings.Join(parts, ", ")
}
