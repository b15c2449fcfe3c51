// Package translate formats user facing text for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

// fallbackLocale is used when the host reports no locale.
const fallbackLocale = "en-US"

var printer = newPrinter(hostLocales())

func hostLocales() []string {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.WithError(err).Warn("locale lookup failed")
	}
	return locales
}

func newPrinter(locales []string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{fallbackLocale}
	}
	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf format for the host locale. Numbers passed
// as %v or %d may be digit grouped; pass them preformatted when the exact
// digits matter.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
