package memory

import (
	"context"
	"sort"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

type orderRepo struct{ s *state }

func (r *orderRepo) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.orders {
		if other.OrderNumber == o.OrderNumber {
			return repositories.ErrDuplicate
		}
	}
	o.ID = 0
	if o.Version == 0 {
		o.Version = 1
	}
	r.s.stamp("orders", &o.Base)
	for i := range o.Items {
		o.Items[i].ID = r.s.next("order_items")
		o.Items[i].OrderID = o.ID
	}
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id uint) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *orderRepo) List(_ context.Context, f repositories.OrderFilter) ([]models.Order, orm.Pagination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var allowed map[uint]bool
	if f.RestaurantIDs != nil {
		allowed = make(map[uint]bool, len(f.RestaurantIDs))
		for _, id := range f.RestaurantIDs {
			allowed[id] = true
		}
	}

	var rows []models.Order
	for _, o := range r.s.orders {
		switch {
		case f.UserID != 0 && o.UserID != f.UserID:
			continue
		case allowed != nil && !allowed[o.RestaurantID]:
			continue
		case f.Status != "" && o.Status != f.Status:
			continue
		}
		rows = append(rows, cloneOrder(o))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	out, p := page(rows, f.Page, f.Limit)
	return out, p, nil
}

func (r *orderRepo) UpdateVersioned(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.orders[o.ID]
	if !ok || stored.Version != o.Version {
		return repositories.ErrStale
	}

	stored.Status = o.Status
	stored.CancellationReason = o.CancellationReason
	stored.EstimatedDeliveryTime = cloneTime(o.EstimatedDeliveryTime)
	stored.ActualDeliveryTime = cloneTime(o.ActualDeliveryTime)
	stored.Payment.Status = o.Payment.Status
	stored.Payment.TransactionID = o.Payment.TransactionID
	stored.Payment.PaidAt = cloneTime(o.Payment.PaidAt)
	stored.Version++
	stored.UpdatedAt = r.s.now()
	r.s.orders[o.ID] = stored

	o.Version = stored.Version
	o.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *orderRepo) All(_ context.Context) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Order, 0, len(r.s.orders))
	for _, id := range sortedIDs(r.s.orders) {
		out = append(out, cloneOrder(r.s.orders[id]))
	}
	return out, nil
}

func cloneOrder(o models.Order) models.Order {
	if o.Items != nil {
		o.Items = append([]models.OrderItem(nil), o.Items...)
	}
	o.Restaurant = nil
	o.DeliveryAddress = cloneAddress(o.DeliveryAddress)
	o.ScheduledFor = cloneTime(o.ScheduledFor)
	o.EstimatedDeliveryTime = cloneTime(o.EstimatedDeliveryTime)
	o.ActualDeliveryTime = cloneTime(o.ActualDeliveryTime)
	o.Payment.PaidAt = cloneTime(o.Payment.PaidAt)
	return o
}
