package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Property names in the insights database.
const (
	PropTitle       = "Title"
	PropInsightID   = "Insight ID"
	PropUser        = "User"
	PropType        = "Type"
	PropSeverity    = "Severity"
	PropDescription = "Description"
	PropCreated     = "Created"
	PropRead        = "Read"
)

// InsightToNotionProperties converts an insight to Notion page properties.
func InsightToNotionProperties(in domain.FinancialInsight) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: richText(in.Title),
		},
		PropInsightID: notionapi.RichTextProperty{
			RichText: richText(in.ID),
		},
		PropUser: notionapi.RichTextProperty{
			RichText: richText(in.UserID),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(in.Type)},
		},
		PropSeverity: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(in.Severity)},
		},
		PropRead: notionapi.CheckboxProperty{
			Checkbox: in.IsRead,
		},
	}

	if in.Description != "" {
		props[PropDescription] = notionapi.RichTextProperty{
			RichText: richText(in.Description),
		}
	}
	if !in.CreatedAt.IsZero() {
		created := notionapi.Date(in.CreatedAt)
		props[PropCreated] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		}
	}
	return props
}

// ReadStateProperties is the update sent when only the read flag changed.
func ReadStateProperties(isRead bool) notionapi.Properties {
	return notionapi.Properties{
		PropRead: notionapi.CheckboxProperty{Checkbox: isRead},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// plainText returns the first text run of a title or rich text property.
func plainText(page notionapi.Page, name string) string {
	switch p := page.Properties[name].(type) {
	case *notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	case *notionapi.TitleProperty:
		if len(p.Title) > 0 {
			return p.Title[0].PlainText
		}
	}
	return ""
}

func checkbox(page notionapi.Page, name string) bool {
	if p, ok := page.Properties[name].(*notionapi.CheckboxProperty); ok {
		return p.Checkbox
	}
	return false
}
