package diffapply

import (
	"testing"

	"prato/internal/domain/restaurants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRestaurant() *restaurants.Restaurant {
	price := 10.0
	desc := "cozy"
	return &restaurants.Restaurant{
		ID:            1,
		Name:          "Old",
		Address:       "Main St 1",
		City:          "Lisboa",
		District:      "Alfama",
		MenuPrice:     &price,
		PriceRange:    "€€",
		FoodType:      "portuguese",
		Dishes:        []string{"bacalhau"},
		WhatsIncluded: []string{"bread"},
		Description:   &desc,
	}
}

func TestParseChangesPreservesOrderAndSplitsPairs(t *testing.T) {
	raw := []byte(`{
		"name": {"from": "Old", "to": "New"},
		"menuPrice": {"from": 10, "to": 12.5},
		"city": "Porto"
	}`)

	set, err := ParseChanges(raw)
	require.NoError(t, err)
	require.Len(t, set, 3)

	assert.Equal(t, "name", set[0].Field)
	assert.Equal(t, "New", set[0].To)
	assert.Equal(t, "Old", set[0].From)

	assert.Equal(t, "menuPrice", set[1].Field)

	// Raw values carry no From.
	assert.Equal(t, "city", set[2].Field)
	assert.Equal(t, "Porto", set[2].To)
	assert.Nil(t, set[2].From)
}

func TestParseChangesRejectsNonObject(t *testing.T) {
	_, err := ParseChanges([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParseChanges([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestApplyPairAndRawValues(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{
		"name": {"from": "Old", "to": "New"},
		"menuPrice": {"from": 10, "to": 12.5}
	}`))
	require.NoError(t, err)

	updated, applied, err := Apply(entity, set)
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Name)
	require.NotNil(t, updated.MenuPrice)
	assert.Equal(t, 12.5, *updated.MenuPrice)
	assert.Equal(t, []string{"name", "menuPrice"}, applied)

	// The input entity stays untouched.
	assert.Equal(t, "Old", entity.Name)
	assert.Equal(t, 10.0, *entity.MenuPrice)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{
		"name": {"to": "New"},
		"menuPrice": {"to": "not-a-number"}
	}`))
	require.NoError(t, err)

	updated, applied, err := Apply(entity, set)
	require.Error(t, err)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "menuPrice", applyErr.Field)

	assert.Nil(t, applied)
	assert.Same(t, entity, updated)
	assert.Equal(t, "Old", entity.Name)
}

func TestApplySkipsUnknownFields(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{
		"name": {"to": "New"},
		"somethingNovel": {"to": "whatever"},
		"numberOfDishes": {"to": 7},
		"distance": {"to": 1.2}
	}`))
	require.NoError(t, err)

	updated, applied, err := Apply(entity, set)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	// The derived no-op fields count as applied; unknown names do not.
	assert.Equal(t, []string{"name", "numberOfDishes", "distance"}, applied)
}

func TestApplyNullableCoercions(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{
		"menuPrice": {"to": null},
		"description": {"to": null},
		"googleRating": {"to": "4.4"},
		"googleReviews": {"to": 120}
	}`))
	require.NoError(t, err)

	updated, _, err := Apply(entity, set)
	require.NoError(t, err)

	assert.Nil(t, updated.MenuPrice)
	assert.Nil(t, updated.Description)
	require.NotNil(t, updated.GoogleRating)
	assert.Equal(t, 4.4, *updated.GoogleRating)
	require.NotNil(t, updated.GoogleReviews)
	assert.Equal(t, int64(120), *updated.GoogleReviews)
}

func TestApplyListFields(t *testing.T) {
	entity := sampleRestaurant()

	set, err := ParseChanges([]byte(`{"dishes": {"to": ["francesinha", 7]}}`))
	require.NoError(t, err)
	updated, _, err := Apply(entity, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"francesinha", "7"}, updated.Dishes)

	// A non-sequence value resets the list instead of leaving it stale.
	set, err = ParseChanges([]byte(`{"whatsIncluded": {"to": "not-a-list"}}`))
	require.NoError(t, err)
	updated, _, err = Apply(entity, set)
	require.NoError(t, err)
	assert.Equal(t, []string{}, updated.WhatsIncluded)
	assert.Equal(t, []string{"bread"}, entity.WhatsIncluded)
}

func TestApplyBooleanTruthiness(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{
		"cardsAccepted": {"to": true},
		"quickService": {"to": 1},
		"groupFriendly": {"to": ""},
		"parking": {"to": null}
	}`))
	require.NoError(t, err)

	updated, _, err := Apply(entity, set)
	require.NoError(t, err)

	assert.True(t, updated.CardsAccepted)
	assert.True(t, updated.QuickService)
	assert.False(t, updated.GroupFriendly)
	assert.False(t, updated.Parking)
}

func TestApplyLaterEntryWinsOnRepeatedField(t *testing.T) {
	entity := sampleRestaurant()
	set, err := ParseChanges([]byte(`{"name": {"to": "First"}, "name": {"to": "Second"}}`))
	require.NoError(t, err)

	updated, _, err := Apply(entity, set)
	require.NoError(t, err)
	assert.Equal(t, "Second", updated.Name)
}
