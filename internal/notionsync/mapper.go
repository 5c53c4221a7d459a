package notionsync

import (
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// Goal board property names.
const (
	PropGoalID   = "Goal ID"
	PropName     = "Name"
	PropTarget   = "Target"
	PropCurrent  = "Current"
	PropProgress = "Progress"
	PropStatus   = "Status"
	PropDeadline = "Deadline"
	PropAccount  = "Account"
	PropCurrency = "Currency"
)

// GoalToNotionProperties converts a goal to Notion properties. acc may be nil
// when the owning account is unknown.
func GoalToNotionProperties(g *domain.Goal, acc *domain.Account) notionapi.Properties {
	props := notionapi.Properties{
		PropGoalID: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: g.ID,
					},
				},
			},
		},
		PropTarget: notionapi.NumberProperty{
			Number: g.TargetAmount.InexactFloat64(),
		},
		PropCurrent: notionapi.NumberProperty{
			Number: g.CurrentAmount.InexactFloat64(),
		},
		PropProgress: notionapi.NumberProperty{
			Number: Progress(g),
		},
	}

	if g.Name != "" {
		props[PropName] = richText(g.Name)
	}

	if g.Status != "" {
		props[PropStatus] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(g.Status),
			},
		}
	}

	if !g.Deadline.IsZero() {
		props[PropDeadline] = dateProperty(g.Deadline)
	}

	if acc != nil {
		props[PropAccount] = richText(acc.Name)
		if acc.Currency != "" {
			props[PropCurrency] = notionapi.SelectProperty{
				Select: notionapi.Option{
					Name: acc.Currency,
				},
			}
		}
	}

	return props
}

// Progress is the funded fraction of the goal, capped at 1.
func Progress(g *domain.Goal) float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p := g.CurrentAmount.Div(g.TargetAmount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		p = decimal.NewFromInt(1)
	}
	return p.Round(4).InexactFloat64()
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{
					Content: s,
				},
			},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: &d,
		},
	}
}
