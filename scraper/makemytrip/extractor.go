package makemytrip

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"flightfare-pipeline/config"
	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

// Field names shared between the locator table, the in-page collector and
// the Go-side extractor.
const (
	fieldAirline       = "airline"
	fieldFlightNumber  = "flight_number"
	fieldDepartureTime = "departure_time"
	fieldArrivalTime   = "arrival_time"
	fieldLayover       = "layover"
	fieldFare          = "fare"
)

// fieldLocator is an ordered chain of selector candidates for one card field.
// The upstream markup drifts over time, so every field carries the selectors
// of each layout generation we have seen; the first selector whose element
// exists and has non-empty text wins.
type fieldLocator struct {
	name      string
	selectors []string
}

var cardLocators = []fieldLocator{
	{fieldAirline, []string{"p.airlineName", ".airlineName", "span.airlineInfo-sctn .airlineName"}},
	{fieldFlightNumber, []string{"p.fliCode", ".fliCode", "span.flightNo"}},
	{fieldDepartureTime, []string{".timeInfoLeft .flightTimeInfo span", ".timeInfoLeft span", "div.depart-time"}},
	{fieldArrivalTime, []string{".timeInfoRight .flightTimeInfo span", ".timeInfoRight span", "div.reach-time"}},
	{fieldLayover, []string{"p.flightsLayoverInfo", ".flightsLayoverInfo", "p.flt-stp"}},
	{fieldFare, []string{
		"span.fontSize18.blackFont",
		".fontSize18.blackFont",
		"div.blackText.fontSize18.blackFont.white-space-no-wrap",
		"span[data-cy=\"price\"]",
		".price",
	}},
}

// cardSelectors locate the result cards themselves, newest layout first.
var cardSelectors = []string{"div.listingCard", "div.timingOptionOuter", "div.fli-list"}

// rawCard holds, per field, one extracted text per selector candidate
// (empty string where the selector matched nothing). The in-page collector
// fills it; the Extractor applies the fallback policy on the Go side so the
// full chain stays available for diagnostics.
type rawCard map[string][]string

// collectorJS builds the in-page script that enumerates result cards and
// gathers every locator candidate's text. limit 0 means all cards.
func collectorJS(limit int) string {
	locators := make(map[string][]string, len(cardLocators))
	for _, fl := range cardLocators {
		locators[fl.name] = fl.selectors
	}
	locJSON, _ := json.Marshal(locators)
	cardJSON, _ := json.Marshal(cardSelectors)

	return fmt.Sprintf(`
		(function() {
			var cardSelectors = %s;
			var locators = %s;
			var limit = %d;

			var cards = [];
			for (var ci = 0; ci < cardSelectors.length; ci++) {
				cards = document.querySelectorAll(cardSelectors[ci]);
				if (cards.length > 0) break;
			}

			var out = [];
			for (var i = 0; i < cards.length; i++) {
				if (limit > 0 && out.length >= limit) break;
				var fields = {};
				for (var name in locators) {
					var sels = locators[name];
					var texts = [];
					for (var j = 0; j < sels.length; j++) {
						var el = cards[i].querySelector(sels[j]);
						texts.push(el ? (el.innerText || '').trim() : '');
					}
					fields[name] = texts;
				}
				out.push(fields);
			}
			return out;
		})()
	`, cardJSON, locJSON, limit)
}

// Extractor turns raw card data into validated FlightRecords.
type Extractor struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewExtractor creates an Extractor bound to the run's route config.
func NewExtractor(cfg *config.Config, logger *utils.Logger) *Extractor {
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract converts one raw card into a FlightRecord, or returns nil when the
// card lacks an airline name or a parsable fare. index is the card's position
// on the page, used for the synthesized flight-number placeholder and for
// diagnostics. date is the ISO departure date of the session.
func (e *Extractor) Extract(card rawCard, index int, date string) *models.FlightRecord {
	airline := firstNonEmpty(card[fieldAirline])
	fareText := firstNonEmpty(card[fieldFare])
	fare, fareErr := parseFare(fareText)

	if airline == "" || fareErr != nil {
		var missing []string
		if airline == "" {
			missing = append(missing, fieldAirline)
		}
		if fareErr != nil {
			missing = append(missing, fieldFare)
		}
		e.logger.Warn("[extract] card %d dropped — missing/invalid: %s",
			index+1, strings.Join(missing, ", "))
		return nil
	}

	flightNumber := firstNonEmpty(card[fieldFlightNumber])
	if flightNumber == "" {
		flightNumber = fmt.Sprintf("Flight-%d", index+1)
	}

	depTime := firstNonEmpty(card[fieldDepartureTime])
	if depTime == "" {
		depTime = "Unknown"
	}
	arrTime := firstNonEmpty(card[fieldArrivalTime])
	if arrTime == "" {
		arrTime = "Unknown"
	}
	layover := firstNonEmpty(card[fieldLayover])
	if layover == "" {
		layover = "non-stop"
	}

	return &models.FlightRecord{
		FlightNumber:       flightNumber,
		AirlineName:        airline,
		SourceCity:         e.cfg.SourceCity,
		DestinationCity:    e.cfg.DestinationCity,
		SourceAirport:      e.cfg.SourceAirport,
		DestinationAirport: e.cfg.DestinationAirport,
		Date:               date,
		DepartureTime:      depTime,
		ArrivalTime:        arrTime,
		Layover:            layover,
		TotalFare:          fare,
	}
}

// firstNonEmpty applies the fallback policy: the first candidate in chain
// order with non-empty text wins.
func firstNonEmpty(candidates []string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// parseFare strips every non-digit rune (currency glyphs, thousands
// separators) and parses the remainder as a positive integer fare.
func parseFare(raw string) (int, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no digits in fare text %q", raw)
	}

	fare, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("parse fare %q: %w", raw, err)
	}
	if fare <= 0 {
		return 0, fmt.Errorf("non-positive fare %d from %q", fare, raw)
	}
	return fare, nil
}
