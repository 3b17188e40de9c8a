// Package validate checks the core library's own input structs --
// BuildRequest, Query, ODRequest -- before they reach the loaders or the
// query engine, without needing an HTTP layer to host the validation.
//
// Grounded on the teacher's pkg/server/rest/handlers.go, which validates
// REST request bodies with github.com/go-playground/validator/v10; this
// package repurposes the same validator against the engine's Go-native
// request structs instead of JSON request bodies.
package validate

import (
	"fmt"
	"strings"

	en "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validatorInstance *validator.Validate
	translator        ut.Translator
)

func init() {
	validatorInstance = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validatorInstance, translator)
}

// BuildRequest mirrors create_graph's arguments: gtfs_path, pbf_path,
// departure, duration, weekday.
type BuildRequest struct {
	GTFSPath  string `validate:"required"`
	PBFPath   string `validate:"required"`
	Departure int64  `validate:"gte=0"`
	Duration  int64  `validate:"gt=0"`
	Weekday   string `validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

// Query mirrors sssp_weights/sp_weight/sp_path's (x,y) query-point
// arguments plus the departure epoch.
type Query struct {
	Departure int64   `validate:"gte=0"`
	Lat       float64 `validate:"gte=-90,lte=90"`
	Lon       float64 `validate:"gte=-180,lte=180"`
}

// PointToPointQuery mirrors sp_weight/sp_path's two-point form.
type PointToPointQuery struct {
	Departure int64   `validate:"gte=0"`
	SrcLat    float64 `validate:"gte=-90,lte=90"`
	SrcLon    float64 `validate:"gte=-180,lte=180"`
	DstLat    float64 `validate:"gte=-90,lte=90"`
	DstLon    float64 `validate:"gte=-180,lte=180"`
}

// ODPoint is one labeled point of an ODRequest.
type ODPoint struct {
	ID  string  `validate:"required"`
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// ODRequest mirrors od_matrix's arguments.
type ODRequest struct {
	Departure int64     `validate:"gte=0"`
	Sources   []ODPoint `validate:"required,min=1,dive"`
	Targets   []ODPoint `validate:"required,min=1,dive"`
}

// Struct validates any of the request types above, translating every
// failing field into one human-readable error, messages joined by "; ".
func Struct(s any) error {
	err := validatorInstance.Struct(s)
	if err == nil {
		return nil
	}

	var msgs []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			msgs = append(msgs, fe.Translate(translator))
		}
	} else {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validate: %s", strings.Join(msgs, "; "))
}
