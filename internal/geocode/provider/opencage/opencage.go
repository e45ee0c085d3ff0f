// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geocode"
	"github.com/wneessen/guia-turistico/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

var ErrMissingAPIKey = errors.New("OpenCage requires an API key")

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	Status       Status   `json:"status"`
	TotalResults int      `json:"total_results"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	CityDistrict   string `json:"city_district"`
	Country        string `json:"country"`
	CountryCode    string `json:"country_code"`
	Footway        string `json:"footway"`
	HouseNumber    string `json:"house_number"`
	Municipality   string `json:"municipality"`
	Neighbourhood  string `json:"neighbourhood"`
	Pedestrian     string `json:"pedestrian"`
	Postcode       string `json:"postcode"`
	Quarter        string `json:"quarter"`
	Road           string `json:"road"`
	State          string `json:"state"`
	StateCode      string `json:"state_code"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// New returns an OpenCage geocoder. It fails if no API key is given.
func New(client *http.Client, lang language.Tag, apikey string) (*OpenCage, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}, nil
}

func (o *OpenCage) Name() string {
	return name
}

// Reverse resolves the position into an address. A response without results is not an
// error, it returns an Address with Found set to false.
func (o *OpenCage) Reverse(ctx context.Context, pos geobus.Position) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", strconv.FormatFloat(pos.Lat, 'f', 7, 64)+","+strconv.FormatFloat(pos.Lon, 'f', 7, 64))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	_, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	if response.Status.Code >= 400 {
		return geocode.Address{}, fmt.Errorf("OpenCage API returned an error: %d %s", response.Status.Code,
			response.Status.Message)
	}
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) == 0 {
		return geocode.Address{Latitude: pos.Lat, Longitude: pos.Lon}, nil
	}

	// Fill the geocode.Address struct
	result := response.Results[0]
	comp := result.Components
	bairro := geocode.FirstOf(comp.Suburb, comp.Neighbourhood, comp.Quarter, comp.CityDistrict)
	if bairro == "" && (comp.Town != "" || comp.City != "") {
		bairro = comp.Village
	}
	address := geocode.Address{
		Logradouro:  geocode.FirstOf(comp.Road, comp.Pedestrian, comp.Footway),
		Numero:      comp.HouseNumber,
		Bairro:      bairro,
		Municipio:   geocode.FirstOf(comp.City, comp.Town, comp.Municipality, comp.NormalizedCity, comp.Village),
		UF:          geocode.StateCode(comp.StateCode),
		CEP:         comp.Postcode,
		Country:     comp.Country,
		DisplayName: result.DisplayName,
		Latitude:    result.Geometry.Lat,
		Longitude:   result.Geometry.Lon,
		Raw:         result,
	}
	address.Found = address.Logradouro != "" || address.Bairro != "" || address.Municipio != ""

	return address, nil
}
