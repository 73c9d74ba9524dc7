package extract

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func extractForms(doc *goquery.Document) []Form {
	var forms []Form
	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		forms = append(forms, parseForm(sel))
	})
	return forms
}

func parseForm(sel *goquery.Selection) Form {
	method := strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", "")))
	if method == "" {
		method = http.MethodGet
	}

	return Form{
		Action: sel.AttrOr("action", ""),
		Method: method,
		Fields: parseFormFields(sel),
	}
}

// parseFormFields walks input, textarea and select children in document
// order. Type defaults to text, name and value default to empty.
func parseFormFields(sel *goquery.Selection) []Field {
	var fields []Field

	sel.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "input":
			fieldType := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
			if fieldType == "" {
				fieldType = "text"
			}
			fields = append(fields, Field{
				Type:  fieldType,
				Name:  s.AttrOr("name", ""),
				Value: s.AttrOr("value", ""),
			})
		case "textarea":
			fields = append(fields, Field{
				Type:  "textarea",
				Name:  s.AttrOr("name", ""),
				Value: strings.TrimSpace(s.Text()),
			})
		case "select":
			fields = append(fields, Field{
				Type:  "select",
				Name:  s.AttrOr("name", ""),
				Value: selectedOptionValue(s),
			})
		}
	})

	return fields
}

// selectedOptionValue picks the explicitly selected option, falling
// back to the first option the way browsers do.
func selectedOptionValue(sel *goquery.Selection) string {
	value := ""
	sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if _, selected := opt.Attr("selected"); selected {
			value = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
			return false
		}
		if value == "" {
			value = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
		}
		return true
	})
	return value
}
