package reports

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/corray333/backend-labs/shop/internal/transport/http/respond"
	"github.com/corray333/backend-labs/shop/internal/transport/http/views"
)

// service is an interface for the service layer.
type service interface {
	OrderCounts(ctx context.Context) ([]user.OrderCount, error)
}

// OrderCounts reports the number of orders per user. Users without orders are omitted.
func OrderCounts(w http.ResponseWriter, r *http.Request, service service) {
	counts, err := service.OrderCounts(r.Context())
	if err != nil {
		respond.Error(w, r, "Error counting orders", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewOrderCounts(counts))
}
