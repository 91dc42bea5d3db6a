// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package indicator

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	msgRunning = "running"
	msgPaused  = "paused"
)

var (
	supported = []language.Tag{language.Chinese, language.English}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	must(b.SetString(language.English, msgRunning, "AutoLock - %d min %d s remaining"))
	must(b.SetString(language.English, msgPaused, "AutoLock - paused"))
	must(b.SetString(language.Chinese, msgRunning, "AutoLock - 剩余 %d 分 %d 秒"))
	must(b.SetString(language.Chinese, msgPaused, "AutoLock - 已暂停"))
	return b
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// MatchLanguage picks the supported display language closest to s
// ("zh", "en", "zh-CN", ...). Unknown input yields Chinese.
func MatchLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Chinese
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Chinese
	}
	return supported[idx]
}

// Render formats the indicator text for one countdown sample.
func Render(p *message.Printer, running bool, remaining time.Duration) string {
	if !running {
		return p.Sprintf(msgPaused)
	}
	if remaining < 0 {
		remaining = 0
	}
	minutes := int(remaining / time.Minute)
	seconds := int(remaining % time.Minute / time.Second)
	return p.Sprintf(msgRunning, minutes, seconds)
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
