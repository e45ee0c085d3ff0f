// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geocode"
	"github.com/wneessen/guia-turistico/internal/http"
)

const (
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

// The Nominatim usage policy allows an absolute maximum of one request per second.
const requestInterval = time.Second

type Nominatim struct {
	http    *http.Client
	lang    language.Tag
	limiter *rate.Limiter
}

type ReverseResult struct {
	Error       string  `json:"error"`
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Pedestrian    string `json:"pedestrian"`
	Footway       string `json:"footway"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Quarter       string `json:"quarter"`
	CityDistrict  string `json:"city_district"`
	Municipality  string `json:"municipality"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	ISO31662Lvl4  string `json:"ISO3166-2-lvl4"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang:    lang,
		http:    client,
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Reverse resolves the position into an address. Calls are throttled to one request per second.
func (n *Nominatim) Reverse(ctx context.Context, pos geobus.Position) (geocode.Address, error) {
	var result ReverseResult
	var err error

	if err = n.limiter.Wait(ctx); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to wait for Nominatim rate limit: %w", err)
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(pos.Lat, 'f', 7, 64))
	query.Set("lon", strconv.FormatFloat(pos.Lon, 'f', 7, 64))
	query.Set("addressdetails", "1")
	query.Set("accept-language", n.lang.String())

	_, err = n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout)
	if result.Error != "" {
		return geocode.Address{}, fmt.Errorf("nominatim API returned an error: %s", result.Error)
	}
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}

	return toAddress(result)
}

// toAddress maps the OSM address components onto the Brazilian address terms.
func toAddress(result ReverseResult) (geocode.Address, error) {
	var err error
	addr := result.Address

	// Districts of a municipality (like Milho Verde in Serro) are tagged as village
	// with the municipality as town or city.
	bairro := geocode.FirstOf(addr.Suburb, addr.Neighbourhood, addr.Quarter, addr.CityDistrict)
	if bairro == "" && (addr.Town != "" || addr.City != "") {
		bairro = addr.Village
	}

	address := geocode.Address{
		Logradouro:  geocode.FirstOf(addr.Road, addr.Pedestrian, addr.Footway),
		Numero:      addr.HouseNumber,
		Bairro:      bairro,
		Municipio:   geocode.FirstOf(addr.City, addr.Town, addr.Municipality, addr.Village),
		UF:          geocode.StateCode(addr.ISO31662Lvl4),
		CEP:         addr.Postcode,
		Country:     addr.Country,
		DisplayName: result.DisplayName,
		Raw:         result,
	}
	address.Found = address.Logradouro != "" || address.Bairro != "" || address.Municipio != ""

	address.Latitude, err = strconv.ParseFloat(result.APILat, 64)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	address.Longitude, err = strconv.ParseFloat(result.APILon, 64)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}

	return address, nil
}
