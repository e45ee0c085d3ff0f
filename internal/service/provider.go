// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/guia-turistico/internal/geobus/provider/gpsd"
	"github.com/wneessen/guia-turistico/internal/geocode"
	"github.com/wneessen/guia-turistico/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/guia-turistico/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/guia-turistico/internal/http"
	"github.com/wneessen/guia-turistico/internal/i18n"
	"github.com/wneessen/guia-turistico/internal/speech"
)

func (s *Service) selectGeobusProviders() ([]geobus.Provider, error) {
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.GeoLocationFile))
	}

	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDAddress, s.logger))
	}

	if len(provider) == 0 {
		return nil, fmt.Errorf("no geolocation providers enabled")
	}

	return provider, nil
}

func (s *Service) selectGeocodeProvider() (geocode.Geocoder, error) {
	lang, err := i18n.Tag(s.config.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to determine geocoder language: %w", err)
	}

	switch strings.ToLower(s.config.GeoCoder.Provider) {
	case "nominatim":
		return nominatim.New(http.New(s.logger), lang), nil
	case "opencage":
		coder, err := opencage.New(http.New(s.logger), lang, s.config.GeoCoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenCage geocoder: %w", err)
		}
		return coder, nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.GeoCoder.Provider)
	}
}

func (s *Service) selectSpeechSink() (speech.Sink, error) {
	if s.config.Speech.Command == "" {
		return speech.NewConsoleSink(os.Stdout, s.config.Speech.Width), nil
	}
	sink, err := speech.NewCommandSink(s.config.Speech.Command)
	if err != nil {
		return nil, err
	}
	return sink, nil
}
