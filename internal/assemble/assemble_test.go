package assemble

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

func ent(label types.EntityLabel, text string) types.EntitySpan {
	return types.EntitySpan{Label: label, Text: text}
}

func TestRecordFixedKeySet(t *testing.T) {
	wantKeys := []string{
		"assessment", "hemodynamics", "imaging", "labs",
		"medications", "neuro_exam", "procedures", "vent",
	}

	for name, entities := range map[string][]types.EntitySpan{
		"empty":   nil,
		"unknown": {ent("DIET", "NPO overnight"), ent("", "stray")},
		"mixed":   {ent(types.EntityLab, "Na=140"), ent("BOGUS", "x")},
	} {
		rec := Record(entities)
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		var keys []string
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if !reflect.DeepEqual(keys, wantKeys) {
			t.Errorf("%s: keys = %v, want %v", name, keys, wantKeys)
		}
	}
}

func TestRecordFreeTextAccumulation(t *testing.T) {
	rec := Record([]types.EntitySpan{
		ent(types.EntityNeuroExam, "Pupils equal and reactive."),
		ent(types.EntityAssessment, "Septic shock"),
		ent(types.EntityNeuroExam, "No focal deficit."),
		ent(types.EntityAssessment, "improving"),
	})
	if rec.NeuroExam != "Pupils equal and reactive. No focal deficit." {
		t.Errorf("neuro_exam = %q", rec.NeuroExam)
	}
	if rec.Assessment != "Septic shock improving" {
		t.Errorf("assessment = %q", rec.Assessment)
	}
}

func TestRecordListsPreserveDuplicates(t *testing.T) {
	rec := Record([]types.EntitySpan{
		ent(types.EntityMedication, "vancomycin"),
		ent(types.EntityMedication, "vancomycin"),
		ent(types.EntityImaging, "CT head negative"),
		ent(types.EntityProcedure, "central line placed"),
		ent(types.EntityVent, "AC 18/450/5/40%"),
	})
	if len(rec.Medications) != 2 {
		t.Errorf("medications = %v, duplicates must be preserved", rec.Medications)
	}
	if len(rec.Imaging) != 1 || len(rec.Procedures) != 1 || len(rec.Vent.Raw) != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRecordMAPLastMatchWins(t *testing.T) {
	rec := Record([]types.EntitySpan{
		ent(types.EntityHemodynamics, "HEMODYNAMICS: MAP: 70"),
		ent(types.EntityHemodynamics, "HEMODYNAMICS: MAP=85"),
	})
	if rec.Hemodynamics.MAP == nil || *rec.Hemodynamics.MAP != 85 {
		t.Fatalf("map = %v, want 85", rec.Hemodynamics.MAP)
	}

	// Also within a single entity text.
	rec = Record([]types.EntitySpan{
		ent(types.EntityHemodynamics, "MAP 60 earlier, MAP 72 after bolus"),
	})
	if rec.Hemodynamics.MAP == nil || *rec.Hemodynamics.MAP != 72 {
		t.Fatalf("map = %v, want 72", rec.Hemodynamics.MAP)
	}
}

func TestRecordPressors(t *testing.T) {
	rec := Record([]types.EntitySpan{
		ent(types.EntityHemodynamics, "MAP 70 on norepi"),
		ent(types.EntityHemodynamics, "weaning Vasopressin"),
		ent(types.EntityHemodynamics, "MAP 75 off drips"),
	})
	want := []string{"MAP 70 on norepi", "weaning Vasopressin"}
	if !reflect.DeepEqual(rec.Hemodynamics.Pressors, want) {
		t.Errorf("pressors = %v, want %v", rec.Hemodynamics.Pressors, want)
	}
	if len(rec.Hemodynamics.Raw) != 3 {
		t.Errorf("raw = %v", rec.Hemodynamics.Raw)
	}
}

func TestRecordLabValues(t *testing.T) {
	rec := Record([]types.EntitySpan{
		ent(types.EntityLab, "Na: 140, K=4.1"),
		ent(types.EntityLab, "Na = 138"),
	})
	if rec.Labs.Values["Na"] != "138" {
		t.Errorf("Na = %q, want last value 138", rec.Labs.Values["Na"])
	}
	if rec.Labs.Values["K"] != "4.1" {
		t.Errorf("K = %q", rec.Labs.Values["K"])
	}
	if len(rec.Labs.Raw) != 2 {
		t.Errorf("raw = %v", rec.Labs.Raw)
	}
}
