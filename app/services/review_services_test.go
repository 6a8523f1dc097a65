package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

func TestCreateReviewOncePerRestaurant(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)
	reviews := f.reviews()

	rev, err := reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 4, Comment: "  great tibs "})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, rev.Status)
	assert.Equal(t, "great tibs", rev.Comment)

	_, err = reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 2})
	assertKind(t, err, apperror.KindValidation, "You have already reviewed this restaurant")

	_, err = reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 0})
	assertKind(t, err, apperror.KindValidation)

	_, err = reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: 404, Rating: 3})
	assertKind(t, err, apperror.KindNotFound)

	_, err = reviews.Create(f.ctx, rbac.Actor{}, CreateReviewInput{RestaurantID: rest.ID, Rating: 3})
	assertKind(t, err, apperror.KindAuthentication)

	assert.Contains(t, f.fired, EventReviewCreated)
}

func TestReviewOwnershipRules(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)
	reviews := f.reviews()
	rev, err := reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 4})
	require.NoError(t, err)

	five := 5
	_, err = reviews.Update(f.ctx, stranger, rev.ID, UpdateReviewInput{Rating: &five})
	assertKind(t, err, apperror.KindAuthorization)

	got, err := reviews.Update(f.ctx, buyer, rev.ID, UpdateReviewInput{Rating: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	stored, _ := f.store.Restaurants.FindByID(f.ctx, rest.ID)
	assert.Equal(t, 5.0, *stored.AverageRating)

	_, err = reviews.Reply(f.ctx, buyer, rev.ID, ReplyInput{Text: "thanks"})
	assertKind(t, err, apperror.KindAuthorization)
	_, err = reviews.Reply(f.ctx, owner, rev.ID, ReplyInput{Text: "  "})
	assertKind(t, err, apperror.KindValidation)

	reviews.now = fixedClock
	got, err = reviews.Reply(f.ctx, owner, rev.ID, ReplyInput{Text: "Thank you!"})
	require.NoError(t, err)
	assert.Equal(t, "Thank you!", got.Reply.Text)
	assert.Equal(t, owner.ID, got.Reply.RepliedBy)
	assert.Equal(t, fixedNow, *got.Reply.RepliedAt)

	assertKind(t, reviews.Delete(f.ctx, stranger, rev.ID), apperror.KindAuthorization)
	require.NoError(t, reviews.Delete(f.ctx, admin, rev.ID))
	_, err = reviews.Get(f.ctx, rev.ID)
	assertKind(t, err, apperror.KindNotFound, "Review not found")
}

func TestToggleHelpful(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)
	reviews := f.reviews()
	rev, err := reviews.Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 4})
	require.NoError(t, err)

	res, err := reviews.ToggleHelpful(f.ctx, stranger, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, &HelpfulResult{HelpfulCount: 1, HasVoted: true}, res)

	res, err = reviews.ToggleHelpful(f.ctx, owner, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.HelpfulCount)

	res, err = reviews.ToggleHelpful(f.ctx, stranger, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, &HelpfulResult{HelpfulCount: 1, HasVoted: false}, res)

	_, err = reviews.ToggleHelpful(f.ctx, stranger, 404)
	assertKind(t, err, apperror.KindNotFound)
}

func TestListReviewsForRestaurantShowsApprovedOnly(t *testing.T) {
	f := newFixture(t)
	rest, _ := f.restaurant(t, owner.ID)

	_, err := f.reviews().Create(f.ctx, buyer, CreateReviewInput{RestaurantID: rest.ID, Rating: 5})
	require.NoError(t, err)
	_, err = f.reviews().WithAutoApprove(false).Create(f.ctx, stranger, CreateReviewInput{RestaurantID: rest.ID, Rating: 1})
	require.NoError(t, err)

	rows, p, err := f.reviews().ListForRestaurant(f.ctx, rest.ID, ReviewQuery{Sort: "lowest"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Rating)
	assert.Equal(t, int64(1), p.Total)

	rows, _, err = f.reviews().List(f.ctx, ReviewQuery{RestaurantID: rest.ID, Sort: "lowest"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rating)

	_, _, err = f.reviews().List(f.ctx, ReviewQuery{Sort: "random"})
	assertKind(t, err, apperror.KindValidation)
}
