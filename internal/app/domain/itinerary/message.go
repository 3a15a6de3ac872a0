package itinerary

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Action names a user edit the adjustment message confirms.
type Action string

const (
	ActionDelete   Action = "delete"
	ActionEdit     Action = "edit"
	ActionAdd      Action = "add"
	ActionOptimize Action = "optimize"
	ActionMove     Action = "move"
)

const (
	msgDelete   = "Removed %s from the itinerary."
	msgEdit     = "Updated the details of %s."
	msgAdd      = "Added %s to the itinerary."
	msgOptimize = "Optimized the route starting from %s."
	msgMove     = "Moved %s and recalculated the schedule."
	msgDefault  = "The itinerary has been updated."
)

var (
	supportedLanguages = []language.Tag{language.Chinese, language.English}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	messages           = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Chinese))
	zh := map[string]string{
		msgDelete:   "已从行程中删除「%s」。",
		msgEdit:     "已更新「%s」的信息。",
		msgAdd:      "已将「%s」添加到行程中。",
		msgOptimize: "已从「%s」出发重新优化路线。",
		msgMove:     "已移动「%s」并重新计算时间。",
		msgDefault:  "行程已更新。",
	}
	for key, zhMsg := range zh {
		_ = b.SetString(language.Chinese, key, zhMsg)
		_ = b.SetString(language.English, key, key)
	}
	return b
}

// AdjustmentMessage returns a confirmation for action on stopName, localized
// for the given Accept-Language value. Chinese is the default.
func AdjustmentMessage(acceptLanguage string, action Action, stopName string) string {
	p := message.NewPrinter(matchLanguage(acceptLanguage), message.Catalog(messages))
	switch action {
	case ActionDelete:
		return p.Sprintf(msgDelete, stopName)
	case ActionEdit:
		return p.Sprintf(msgEdit, stopName)
	case ActionAdd:
		return p.Sprintf(msgAdd, stopName)
	case ActionOptimize:
		return p.Sprintf(msgOptimize, stopName)
	case ActionMove:
		return p.Sprintf(msgMove, stopName)
	default:
		return p.Sprintf(msgDefault)
	}
}

func matchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Chinese
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return language.Chinese
	}
	return supportedLanguages[idx]
}
