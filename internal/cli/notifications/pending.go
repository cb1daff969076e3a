package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pulse/internal/cli"
	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/models"
)

type PendingCmd struct {
	Category string `help:"Only show entries of this category."`
	Limit    int    `help:"Show at most this many entries per category (0 for all)." default:"5"`
}

func (c *PendingCmd) Run(ctx *cli.Context) error {
	if c.Category != "" {
		if _, err := models.ParseCategory(c.Category); err != nil {
			return err
		}
	}

	entries, err := ctx.Store.ListPending(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list pending notifications: %w", err)
	}

	groups := make(map[models.Category][]models.Entry)
	var uncategorized []models.Entry
	for _, e := range entries {
		if e.Category == "" {
			uncategorized = append(uncategorized, e)
			continue
		}
		groups[e.Category] = append(groups[e.Category], e)
	}

	loc := ctx.Config.Location()
	shown := 0
	for _, cat := range models.Categories {
		if c.Category != "" && string(cat) != c.Category {
			continue
		}
		shown += c.printGroup(cat.String(), groups[cat], loc)
	}
	if c.Category == "" {
		shown += c.printGroup("uncategorized", uncategorized, loc)
	}

	if shown == 0 {
		fmt.Println("No pending notifications")
	}
	return nil
}

func (c *PendingCmd) printGroup(name string, entries []models.Entry, loc *time.Location) int {
	if len(entries) == 0 {
		return 0
	}
	fmt.Printf("%s (%d):\n", name, len(entries))
	for i, e := range entries {
		if c.Limit > 0 && i == c.Limit {
			fmt.Printf("  ... %d more\n", len(entries)-c.Limit)
			break
		}
		fmt.Printf("  #%d  %s  %s\n", e.ID, e.FireAt.In(loc).Format(constants.DateFormat+" "+constants.TimeFormat), e.Title)
	}
	return len(entries)
}
