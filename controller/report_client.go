package controller

import (
	"context"
	"time"

	"github.com/jonoromo/turret"
	"github.com/jonoromo/turret/report"
)

type reportClient interface {
	CreateEngagement(ctx context.Context, name string, start time.Time) (string, error)
	AddEvent(ctx context.Context, e turret.Event, now time.Time) error
	SetResult(ctx context.Context, result report.Result) error
	Done(ctx context.Context, now time.Time) error
}

var _ reportClient = &report.Client{}

type noopReportClient struct{}

var _ reportClient = noopReportClient{}

// AddEvent implements reportClient.
func (n noopReportClient) AddEvent(ctx context.Context, e turret.Event, now time.Time) error {
	return nil
}

// CreateEngagement implements reportClient.
func (n noopReportClient) CreateEngagement(ctx context.Context, name string, start time.Time) (string, error) {
	return "", nil
}

// Done implements reportClient.
func (n noopReportClient) Done(ctx context.Context, now time.Time) error {
	return nil
}

// SetResult implements reportClient.
func (n noopReportClient) SetResult(ctx context.Context, result report.Result) error {
	return nil
}
