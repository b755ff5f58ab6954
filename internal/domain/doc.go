// Package domain models aerodrome observations published by the Taiwan Air
// Navigation & Weather Services (ANWS) AOAWS page.
//
// # Data Source
//
// The AOAWS "mainRight" page (https://aoaws.anws.gov.tw/AWS/mainRight.php)
// renders one table row per aerodrome. The rows are not HTML table cells: each
// station is emitted as an inline script call inside the element with id
// "select_icao":
//
//	addarray('RCTP','Taoyuan', ... ,'2024-01-01 00:00 UTC', ... ,'RCTP 010000Z 27015KT ... 12/08 Q1013');
//
// The adapter in internal/adapter/aoaws turns each call into a [RawRow]; this
// package locates a station among those rows and normalizes it.
//
// # Column Layout
//
// The table has no header row. Meaning is purely positional; see the Col*
// constants on [RawRow]. Rows shorter than [MinRowLength] are rejected as a
// whole by [RawRow.Validate].
//
// # Field Conventions
//
// Markup:
//
//	Stale values are greyed out with <font color=#999999>...</font>. Inside the
//	script literals the tag may be escaped (<font color=\#999999\>, <\/font>).
//	Every field is stripped of these tags before parsing.
//
// Time:
//
//	"YYYY-MM-DD HH:MM <TZ>", e.g. "2024-01-01 00:00 UTC". The feed is eight
//	hours behind station local time; [FeedOffset] is added and the result is
//	rendered as "YYYY-MM-DD HH:MM:SS" in the UTC+8 [StationZone]. The offset is
//	a fixed assumption about the feed and is not derived per station.
//
// Wind:
//
//	"15KT", "15Gust25KT", "15陣風25節". Knots are converted to km/h (x1.852).
//	With a gust marker the number before the marker is the sustained speed and
//	the number after it is the gust.
//
// Visibility:
//
//	"10KM Over", "500 M", "10公里以上", "800公尺". Meters are divided by 1000.
//	An open-ended reading ("Over", "以上") adds 10 km as a floor estimate.
//
// METAR tail:
//
//	The last column carries the raw METAR. The temperature/dew point group
//	("12/08") yields the dew point and the QNH group ("Q1013") the pressure.
//
// # Missing Values
//
// A field that carries nothing parseable leaves its [Observation] slot nil.
// Only the observation time is fatal; see [NormalizationError].
package domain
