package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/constants"
)

type HistoryCmd struct {
	Limit int `help:"Number of records to show (0 for all)." default:"20"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	deliveries, err := ctx.Store.ListDeliveries(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list deliveries: %w", err)
	}
	if len(deliveries) == 0 {
		fmt.Println("No deliveries recorded")
		return nil
	}

	loc := ctx.Config.Location()
	for _, d := range deliveries {
		category := string(d.Category)
		if category == "" {
			category = "-"
		}
		fmt.Printf("%s  [%s] #%d %s: %s\n",
			d.At.In(loc).Format(time.DateTime), d.Status, d.EntryID, category, d.Title)
		if d.Status == constants.DeliveryFailed && d.Error != "" {
			fmt.Printf("      %s\n", d.Error)
		}
	}
	return nil
}
