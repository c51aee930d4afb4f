package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		question string
		want     Intent
	}{
		{"Who invented this?", IntentPerson},
		{"where is data stored", IntentLocation},
		{"How does it work?", IntentProcess},
		{"What is cloud computing?", IntentDefinition},
		{"  WHAT is IaaS", IntentDefinition},
		{"however you slice it", IntentProcess},
		{"whatever", IntentDefinition},
		{"Explain cloud computing", IntentGeneral},
		{"", IntentGeneral},
		{"Is it cheap? what about scaling", IntentGeneral},
	}
	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ClassifyIntent(tc.question))
		})
	}
}

func TestIntent_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "PERSON", IntentPerson.String())
	assert.Equal(t, "LOCATION", IntentLocation.String())
	assert.Equal(t, "PROCESS", IntentProcess.String())
	assert.Equal(t, "DEFINITION", IntentDefinition.String())
	assert.Equal(t, "GENERAL", IntentGeneral.String())
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		intent Intent
		text   string
		want   bool
	}{
		{"person never matches", IntentPerson, "Tim Berners-Lee is a person", false},
		{"location keyword", IntentLocation, "Each REGION hosts several zones", true},
		{"location miss", IntentLocation, "Pricing depends on usage", false},
		{"process keyword", IntentProcess, "The deployment Process has three stages", true},
		{"process miss", IntentProcess, "Pricing depends on usage", false},
		{"definition substring", IntentDefinition, "This refers to compute", true},
		{"definition miss", IntentDefinition, "Pay per use", false},
		{"general accepts anything", IntentGeneral, "zzz", true},
		{"unknown intent accepts", Intent(99), "zzz", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Compatible(tc.intent, tc.text))
		})
	}
}

func TestFilterContexts_PreservesOrder(t *testing.T) {
	t.Parallel()
	texts := []string{
		"edge network nodes",
		"pricing tiers",
		"region failover",
	}
	assert.Equal(t, []string{"edge network nodes", "region failover"}, FilterContexts(IntentLocation, texts))
	assert.Empty(t, FilterContexts(IntentPerson, texts))
	assert.Equal(t, texts, FilterContexts(IntentGeneral, texts))
}
