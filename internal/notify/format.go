package notify

import (
	"fmt"

	"github.com/zulandar/shopfloor/internal/models"
)

// Sidebar colors by severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
)

// Message is the chat rendering of an event, shared by Slack and Discord.
type Message struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a name/value pair shown under a message.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Format renders an event for chat.
func Format(ev Event) Message {
	switch ev.Kind {
	case KindProductStatus:
		m := Message{
			Title: fmt.Sprintf("Product %s %s", ev.ProductNumber, productVerb(ev.Status)),
			Color: productColor(ev.Status),
		}
		if ev.Count > 0 {
			m.Fields = append(m.Fields, Field{Name: "Parts", Value: fmt.Sprintf("%d", ev.Count), Short: true})
		}
		if ev.Station != "" {
			m.Fields = append(m.Fields, Field{Name: "Station", Value: ev.Station, Short: true})
		}
		return m
	case KindSheetCut:
		return Message{
			Title:  fmt.Sprintf("Sheet %s cut", ev.SheetName),
			Body:   fmt.Sprintf("%d parts ready to sort", ev.Count),
			Color:  ColorInfo,
			Fields: stationField(ev.Station),
		}
	case KindPartStatus:
		m := Message{
			Title:  fmt.Sprintf("Part %s %s", ev.PartNumber, ev.Status),
			Color:  ColorInfo,
			Fields: stationField(ev.Station),
		}
		if ev.Location != "" {
			m.Body = "Stored at " + ev.Location
		}
		return m
	case KindDigest:
		return Message{Title: "Shop floor digest", Body: ev.Text, Color: ColorInfo}
	default:
		return Message{Title: string(ev.Kind), Body: ev.Text, Color: ColorInfo}
	}
}

// Text is the plain one-line rendering of a message.
func (m Message) Text() string {
	if m.Body == "" {
		return m.Title
	}
	return m.Title + ": " + m.Body
}

func stationField(station string) []Field {
	if station == "" {
		return nil
	}
	return []Field{{Name: "Station", Value: station, Short: true}}
}

func productVerb(status string) string {
	switch status {
	case models.ProductInProgress:
		return "started"
	case models.ProductComplete:
		return "assembled"
	case models.ProductShipped:
		return "shipped"
	default:
		return status
	}
}

func productColor(status string) string {
	switch status {
	case models.ProductComplete, models.ProductShipped:
		return ColorSuccess
	default:
		return ColorInfo
	}
}
