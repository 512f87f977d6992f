package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
)

var errNoResult = errors.New("no analytics result yet; call analytics.refresh first")

type snapshotView struct {
	uri, name, description string
	project                func(*SnapshotDTO) (any, error)
}

var snapshotViews = []snapshotView{
	{
		uri:         "teampulse://analytics/snapshot",
		name:        "Analytics snapshot",
		description: "Last applied multi-team analytics result and refresh state",
		project:     func(dto *SnapshotDTO) (any, error) { return dto, nil },
	},
	{
		uri:         "teampulse://analytics/insights",
		name:        "Strategic insights",
		description: "Alerts, recommendations and opportunities from the last applied refresh",
		project: func(dto *SnapshotDTO) (any, error) {
			if dto.Result == nil {
				return nil, errNoResult
			}
			return dto.Result.Insights, nil
		},
	},
}

// RegisterResources exposes read-only views over the aggregator snapshot.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if err := deps.validate(srv); err != nil {
		return err
	}
	snapshot := snapshotTool(deps.App)

	for _, view := range snapshotViews {
		srv.Resource(view.uri).
			Name(view.name).
			Description(view.description).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
				dto, err := snapshot(ctx, struct{}{})
				if err != nil {
					return nil, err
				}
				v, err := view.project(dto)
				if err != nil {
					return nil, err
				}
				data, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return nil, err
				}
				return &mcp.ResourceContent{URI: uri, MimeType: "application/json", Text: string(data)}, nil
			})
	}
	return nil
}
