package migrations

import (
	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/pkg/migration"
	"github.com/gebeta-app/gebeta/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_users_table",
		migration.Tables(&models.User{}))
	migration.Register("20260101000001_create_restaurants_tables",
		migration.Tables(&models.Restaurant{}, &models.MenuItem{}))
	migration.Register("20260101000002_create_orders_tables",
		migration.Tables(&models.Order{}, &models.OrderItem{}))
	migration.Register("20260101000003_create_reviews_tables",
		migration.Tables(&models.Review{}, &models.ReviewHelpfulVote{}))
	migration.Register("20260101000004_create_recipes_tables",
		migration.Tables(&models.Recipe{}, &models.RecipeLike{}, &models.RecipeComment{}, &models.RecipeRating{}))
	migration.Register("20260101000005_create_favorites_table",
		migration.Tables(&models.Favorite{}))
	migration.Register("20260101000006_create_notifications_table",
		migration.Tables(&models.Notification{}))
	migration.Register("20260101000007_create_failed_jobs_table",
		migration.Tables(&queue.FailedJob{}))
}
