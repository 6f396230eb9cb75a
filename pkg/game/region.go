package game

import (
	"fmt"
	"strings"
)

type Region string

const (
	NA    Region = "na"
	EU    Region = "eu"
	AP    Region = "ap"
	KR    Region = "kr"
	LATAM Region = "latam"
	BR    Region = "br"
)

func (r Region) ToString() string {
	switch r {
	case NA:
		return "North America"
	case EU:
		return "Europe"
	case AP:
		return "Asia Pacific"
	case KR:
		return "Korea"
	case LATAM:
		return "Latin America"
	case BR:
		return "Brazil"
	}
	return "Unknown"
}

func ParseRegion(str string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(str)))
	if r == "" {
		return NA, nil
	}
	if r.ToString() == "Unknown" {
		return "", fmt.Errorf("unknown region \"%s\"", str)
	}
	return r, nil
}
