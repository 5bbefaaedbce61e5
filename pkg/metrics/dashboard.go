package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/volsweep/volsweep/internal/models"
)

type dashboardBody struct {
	Widgets []widget `json:"widgets"`
}

type widget struct {
	Type       string           `json:"type"`
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Properties widgetProperties `json:"properties"`
}

type widgetProperties struct {
	Metrics  [][]string `json:"metrics,omitempty"`
	View     string     `json:"view,omitempty"`
	Stat     string     `json:"stat,omitempty"`
	Region   string     `json:"region,omitempty"`
	Title    string     `json:"title,omitempty"`
	Markdown string     `json:"markdown,omitempty"`
}

// PutDashboard renders the sweep report as a CloudWatch dashboard
func (r *Recorder) PutDashboard(ctx context.Context, name string, report *models.Report) error {
	body, err := BuildDashboardBody(report)
	if err != nil {
		return err
	}

	_, err = r.api.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(name),
		DashboardBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("error putting dashboard %s: %w", name, err)
	}
	return nil
}

// BuildDashboardBody builds the dashboard JSON: one pair of single-value
// count widgets per swept region, then text widgets with the stale list
// and the deletion results
func BuildDashboardBody(report *models.Report) (string, error) {
	var widgets []widget

	y := 0
	for _, region := range report.Regions {
		widgets = append(widgets,
			widget{
				Type: "metric", X: 0, Y: y, Width: 6, Height: 6,
				Properties: widgetProperties{
					Metrics: [][]string{{Namespace, "TotalVolumeCount", "Region", region}},
					View:    "singleValue",
					Stat:    "Average",
					Region:  region,
					Title:   "Total Volumes - " + region,
				},
			},
			widget{
				Type: "metric", X: 6, Y: y, Width: 6, Height: 6,
				Properties: widgetProperties{
					Metrics: [][]string{{Namespace, "AvailableVolumeCount", "Region", region}},
					View:    "singleValue",
					Stat:    "Average",
					Region:  region,
					Title:   "Stale Volumes - " + region,
				},
			},
		)
		y += 6
	}

	staleList := "No stale volumes."
	if ids := report.StaleVolumeIDs(); len(ids) > 0 {
		staleList = strings.Join(ids, "\n")
	}
	widgets = append(widgets, widget{
		Type: "text", X: 0, Y: y, Width: 12, Height: 6,
		Properties: widgetProperties{
			Markdown: fmt.Sprintf("### Stale EBS Volume IDs Across Regions\n```\n%s\n```", staleList),
		},
	})
	y += 6

	widgets = append(widgets, widget{
		Type: "text", X: 0, Y: y, Width: 12, Height: 6,
		Properties: widgetProperties{
			Markdown: fmt.Sprintf("### Deletion Results\n**Mode:** %s\n```\n%s\n```",
				report.Mode, actionLines(report.Actions)),
		},
	})

	data, err := json.Marshal(dashboardBody{Widgets: widgets})
	if err != nil {
		return "", fmt.Errorf("error building dashboard body: %w", err)
	}
	return string(data), nil
}

func actionLines(actions []models.Action) string {
	if len(actions) == 0 {
		return "No volumes were deleted."
	}

	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		line := fmt.Sprintf("%s: %s - %s", a.Region, a.ResourceID, a.Kind)
		if a.Err != "" {
			line += ": " + a.Err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
