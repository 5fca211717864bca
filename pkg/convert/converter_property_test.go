package convert

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nimburion/docmap/pkg/metadata"
)

// Property: entity-to-document conversion round-trips.
//
// For any supported entity shape e, ToEntity(ToDocument(e)) is semantically
// equal to e: scalars, nested entities and ordered sequences survive the
// trip, and absent fields stay absent.

func TestProperty_ConversionRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	conv, err := New[Person](metadata.NewReflectResolver())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	properties.Property("scalar and sequence fields round-trip", prop.ForAll(
		func(id int64, name string, age int, nicknames []string) bool {
			entity := Person{ID: id, Name: name, Age: age}
			if len(nicknames) > 0 {
				entity.Nicknames = nicknames
			}

			doc, err := conv.ToDocument(&entity)
			if err != nil {
				t.Logf("ToDocument failed: %v", err)
				return false
			}
			got, err := conv.ToEntity(doc)
			if err != nil {
				t.Logf("ToEntity failed: %v", err)
				return false
			}
			return reflect.DeepEqual(*got, entity)
		},
		gen.Int64(),
		gen.AlphaString(),
		gen.IntRange(0, 150),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("nested entities round-trip", prop.ForAll(
		func(id int64, street, city string) bool {
			entity := Person{ID: id, Address: &Address{Street: street, City: city}}

			doc, err := conv.ToDocument(&entity)
			if err != nil {
				t.Logf("ToDocument failed: %v", err)
				return false
			}
			got, err := conv.ToEntity(doc)
			if err != nil {
				t.Logf("ToEntity failed: %v", err)
				return false
			}
			return reflect.DeepEqual(*got, entity)
		},
		gen.Int64(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
