package alerting

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketwatch/internal/market"
)

const stampLayout = "02.01.2006 15:04"

// ThresholdMessage renders the notification for a crossed price threshold.
func ThresholdMessage(itemName string, current int64, alert market.PriceAlert, at time.Time) string {
	arrow, word := "⬇️", "unter"
	if alert.Direction == market.DirectionAbove {
		arrow, word = "⬆️", "über"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Preis-Alert ausgelöst!</b>\n\n", arrow)
	fmt.Fprintf(&b, "📦 <b>Item:</b> %s\n", html.EscapeString(itemName))
	fmt.Fprintf(&b, "💰 <b>Preis:</b> %s\n", market.FormatPrice(current, alert.PriceType))
	fmt.Fprintf(&b, "📊 <b>Schwelle:</b> %s %s\n", word, market.FormatPrice(alert.Threshold, alert.PriceType))
	fmt.Fprintf(&b, "🕐 %s", at.Format(stampLayout))
	return b.String()
}

// DeviationMessage renders the notification for a fired percentage rule.
func DeviationMessage(itemName string, alert market.PercentageAlert, valueA, valueB int64, pct decimal.Decimal, at time.Time) string {
	var b strings.Builder
	b.WriteString("📐 <b>Abweichungs-Alert ausgelöst!</b>\n\n")
	fmt.Fprintf(&b, "📦 <b>Item:</b> %s\n", html.EscapeString(itemName))
	fmt.Fprintf(&b, "📊 <b>%s:</b> %s Yang\n", html.EscapeString(alert.MetricA.Label()), market.FormatThousands(valueA))
	fmt.Fprintf(&b, "📊 <b>%s:</b> %s Yang\n", html.EscapeString(alert.MetricB.Label()), market.FormatThousands(valueB))
	fmt.Fprintf(&b, "📈 <b>Abweichung:</b> %s%% (Schwelle: %s%%)\n", pct.StringFixed(1), alert.ThresholdPct.String())
	fmt.Fprintf(&b, "🕐 %s", at.Format(stampLayout))
	return b.String()
}

// ConfirmationMessage confirms a working sink.
func ConfirmationMessage() string {
	return "✅ <b>Marketwatch</b> – Telegram-Verbindung erfolgreich!"
}
