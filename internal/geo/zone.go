package geo

import (
	"fmt"
	"strings"
)

// Zone is a parish used to bucket inspection capacity and group routes.
type Zone string

// Parish catalog of the Tulcan canton. The two urban parishes get the bulk
// of the inspection traffic; rural parishes are visited on dedicated days.
const (
	ZoneGonzalezSuarez Zone = "GONZALEZ_SUAREZ"
	ZoneTulcanCentro   Zone = "TULCAN_CENTRO"
	ZoneMaldonado      Zone = "MALDONADO"
	ZoneChical         Zone = "CHICAL"
	ZoneTobarDonoso    Zone = "TOBAR_DONOSO"
	ZoneElCarmelo      Zone = "EL_CARMELO"
	ZoneUrbina         Zone = "URBINA"
	ZoneJulioAndrade   Zone = "JULIO_ANDRADE"
	ZonePioter         Zone = "PIOTER"
	ZoneSantaMartha    Zone = "SANTA_MARTHA"
	ZoneTufino         Zone = "TUFINO"
)

// Zones lists every parish in catalog order.
func Zones() []Zone {
	return []Zone{
		ZoneGonzalezSuarez,
		ZoneTulcanCentro,
		ZoneMaldonado,
		ZoneChical,
		ZoneTobarDonoso,
		ZoneElCarmelo,
		ZoneUrbina,
		ZoneJulioAndrade,
		ZonePioter,
		ZoneSantaMartha,
		ZoneTufino,
	}
}

// UrbanZones returns the parishes inside the city proper.
func UrbanZones() []Zone {
	return []Zone{ZoneGonzalezSuarez, ZoneTulcanCentro}
}

// ParseZone validates a zone code received from a client.
func ParseZone(s string) (Zone, error) {
	z := Zone(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Zones() {
		if z == known {
			return z, nil
		}
	}
	return "", fmt.Errorf("geo: unknown zone %q", s)
}
