package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
)

func copyItem(item domain.CatalogItem) *domain.CatalogItem {
	if item.Warranty != nil {
		w := *item.Warranty
		item.Warranty = &w
	}
	if item.Specifications.Phone != nil {
		p := *item.Specifications.Phone
		item.Specifications.Phone = &p
	}
	if item.Specifications.General != nil {
		g := *item.Specifications.General
		item.Specifications.General = &g
	}
	return &item
}

func copySale(sale domain.Sale) *domain.Sale {
	sale.Lines = append([]domain.SaleLine{}, sale.Lines...)
	return &sale
}

type catalogRepository struct{ v *view }

func (r *catalogRepository) Create(_ context.Context, item *domain.CatalogItem) error {
	return r.v.write(func(s *state) error {
		s.items[item.ID] = *copyItem(*item)
		return nil
	})
}

func (r *catalogRepository) Update(_ context.Context, item *domain.CatalogItem) error {
	return r.v.write(func(s *state) error {
		current, ok := s.items[item.ID]
		if !ok {
			return repository.ErrCatalogItemNotFound
		}
		updated := *copyItem(*item)
		updated.CreatedAt = current.CreatedAt
		s.items[item.ID] = updated
		return nil
	})
}

func (r *catalogRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(s *state) error {
		if _, ok := s.items[id]; !ok {
			return repository.ErrCatalogItemNotFound
		}
		for _, sale := range s.sales {
			for _, line := range sale.Lines {
				if line.CatalogItemID == id {
					return repository.ErrCatalogItemInUse
				}
			}
		}
		delete(s.items, id)
		for sid, unit := range s.serials {
			if unit.CatalogItemID == id {
				delete(s.serials, sid)
			}
		}
		return nil
	})
}

func (r *catalogRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	var out *domain.CatalogItem
	err := r.v.read(func(s *state) error {
		item, ok := s.items[id]
		if !ok {
			return repository.ErrCatalogItemNotFound
		}
		out = copyItem(item)
		return nil
	})
	return out, err
}

func (r *catalogRepository) List(_ context.Context, filter domain.CatalogFilter) ([]*domain.CatalogItem, error) {
	text := strings.ToLower(strings.TrimSpace(filter.Text))
	items := []*domain.CatalogItem{}
	err := r.v.read(func(s *state) error {
		for _, item := range s.items {
			if filter.Category != "" && item.Category != filter.Category {
				continue
			}
			if filter.Status != "" && item.Status != filter.Status {
				continue
			}
			if text != "" &&
				!strings.Contains(strings.ToLower(item.Name), text) &&
				!strings.Contains(strings.ToLower(item.Brand), text) &&
				!strings.Contains(strings.ToLower(item.SKU), text) {
				continue
			}
			items = append(items, copyItem(item))
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, err
}

func (r *catalogRepository) ListLowStock(_ context.Context) ([]*domain.CatalogItem, error) {
	items := []*domain.CatalogItem{}
	err := r.v.read(func(s *state) error {
		for _, item := range s.items {
			if item.IsLowStock() && item.Status != domain.StatusDiscontinued {
				items = append(items, copyItem(item))
			}
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].StockQuantity != items[j].StockQuantity {
			return items[i].StockQuantity < items[j].StockQuantity
		}
		return items[i].Name < items[j].Name
	})
	return items, err
}

func (r *catalogRepository) Count(_ context.Context) (int, error) {
	n := 0
	err := r.v.read(func(s *state) error {
		n = len(s.items)
		return nil
	})
	return n, err
}

func (r *catalogRepository) HasSaleLines(_ context.Context, id uuid.UUID) (bool, error) {
	found := false
	err := r.v.read(func(s *state) error {
		for _, sale := range s.sales {
			for _, line := range sale.Lines {
				if line.CatalogItemID == id {
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}

func (r *catalogRepository) DecrementStock(_ context.Context, id uuid.UUID, qty int, at time.Time) error {
	return r.v.write(func(s *state) error {
		item, ok := s.items[id]
		if !ok {
			return repository.ErrCatalogItemNotFound
		}
		if item.StockQuantity < qty {
			return repository.ErrInsufficientStock
		}
		item.StockQuantity -= qty
		if item.StockQuantity == 0 && item.Status != domain.StatusDiscontinued {
			item.Status = domain.StatusOutOfStock
		}
		item.UpdatedAt = at
		s.items[id] = item
		return nil
	})
}

type serialRepository struct{ v *view }

func (r *serialRepository) Create(_ context.Context, unit *domain.SerialUnit) error {
	return r.v.write(func(s *state) error {
		for _, existing := range s.serials {
			if existing.CatalogItemID == unit.CatalogItemID && existing.Serial == unit.Serial {
				return repository.ErrSerialAlreadyExists
			}
		}
		stored := *unit
		stored.Sold = false
		stored.SaleLineID = nil
		stored.SoldAt = nil
		s.serials[unit.ID] = stored
		return nil
	})
}

func (r *serialRepository) ListByItem(_ context.Context, itemID uuid.UUID, availableOnly bool) ([]*domain.SerialUnit, error) {
	units := []*domain.SerialUnit{}
	err := r.v.read(func(s *state) error {
		for _, unit := range s.serials {
			if unit.CatalogItemID != itemID || (availableOnly && unit.Sold) {
				continue
			}
			u := unit
			units = append(units, &u)
		}
		return nil
	})
	sort.Slice(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID.String() < units[j].ID.String()
	})
	return units, err
}

func (r *serialRepository) FindBySerial(_ context.Context, itemID uuid.UUID, serial string) (*domain.SerialUnit, error) {
	var out *domain.SerialUnit
	err := r.v.read(func(s *state) error {
		for _, unit := range s.serials {
			if unit.CatalogItemID == itemID && unit.Serial == serial {
				u := unit
				out = &u
				return nil
			}
		}
		return repository.ErrSerialNotFound
	})
	return out, err
}

func (r *serialRepository) MarkSold(_ context.Context, itemID uuid.UUID, serial string, saleLineID uuid.UUID, at time.Time) error {
	return r.v.write(func(s *state) error {
		for id, unit := range s.serials {
			if unit.CatalogItemID != itemID || unit.Serial != serial {
				continue
			}
			if unit.Sold {
				return repository.ErrSerialSold
			}
			lineID := saleLineID
			soldAt := at
			unit.Sold = true
			unit.SaleLineID = &lineID
			unit.SoldAt = &soldAt
			s.serials[id] = unit
			return nil
		}
		return repository.ErrSerialNotFound
	})
}

func (r *serialRepository) DeleteUnsold(_ context.Context, id uuid.UUID) error {
	return r.v.write(func(s *state) error {
		unit, ok := s.serials[id]
		if !ok {
			return repository.ErrSerialNotFound
		}
		if unit.Sold {
			return repository.ErrSerialSold
		}
		delete(s.serials, id)
		return nil
	})
}

type saleRepository struct{ v *view }

func (r *saleRepository) Create(_ context.Context, sale *domain.Sale) error {
	return r.v.write(func(s *state) error {
		for _, line := range sale.Lines {
			if _, ok := s.items[line.CatalogItemID]; !ok {
				return repository.ErrCatalogItemNotFound
			}
		}
		for i := range sale.Lines {
			sale.Lines[i].SaleID = sale.ID
		}
		s.sales[sale.ID] = *copySale(*sale)
		return nil
	})
}

func (r *saleRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	var out *domain.Sale
	err := r.v.read(func(s *state) error {
		sale, ok := s.sales[id]
		if !ok {
			return repository.ErrSaleNotFound
		}
		out = copySale(sale)
		return nil
	})
	return out, err
}

func (r *saleRepository) List(_ context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	sales := []*domain.Sale{}
	err := r.v.read(func(s *state) error {
		for _, sale := range s.sales {
			if !filter.From.IsZero() && sale.CreatedAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && sale.CreatedAt.After(filter.To) {
				continue
			}
			if filter.Status != "" && sale.Status != filter.Status {
				continue
			}
			sales = append(sales, copySale(sale))
		}
		return nil
	})
	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].CreatedAt.Equal(sales[j].CreatedAt) {
			return sales[i].CreatedAt.After(sales[j].CreatedAt)
		}
		return sales[i].ID.String() < sales[j].ID.String()
	})
	if filter.Limit > 0 && len(sales) > filter.Limit {
		sales = sales[:filter.Limit]
	}
	return sales, err
}

func (r *saleRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.SaleStatus, at time.Time) error {
	return r.v.write(func(s *state) error {
		sale, ok := s.sales[id]
		if !ok {
			return repository.ErrSaleNotFound
		}
		if sale.Status != from {
			return repository.ErrSaleStatusChanged
		}
		sale.Status = to
		sale.UpdatedAt = at
		s.sales[id] = sale
		return nil
	})
}

func (r *saleRepository) CountCustomers(_ context.Context) (int, error) {
	seen := map[string]struct{}{}
	err := r.v.read(func(s *state) error {
		for _, sale := range s.sales {
			seen[strings.ToLower(strings.TrimSpace(sale.CustomerName))] = struct{}{}
		}
		return nil
	})
	return len(seen), err
}

type ticketRepository struct{ v *view }

func (r *ticketRepository) Create(_ context.Context, ticket *domain.ServiceTicket) error {
	return r.v.write(func(s *state) error {
		s.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.ServiceTicket) error {
	return r.v.write(func(s *state) error {
		current, ok := s.tickets[ticket.ID]
		if !ok {
			return repository.ErrServiceTicketNotFound
		}
		current.Amount = ticket.Amount
		current.MaterialCost = ticket.MaterialCost
		current.Status = ticket.Status
		current.Comments = ticket.Comments
		current.UpdatedAt = ticket.UpdatedAt
		s.tickets[ticket.ID] = current
		return nil
	})
}

func (r *ticketRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.ServiceTicket, error) {
	var out *domain.ServiceTicket
	err := r.v.read(func(s *state) error {
		ticket, ok := s.tickets[id]
		if !ok {
			return repository.ErrServiceTicketNotFound
		}
		out = &ticket
		return nil
	})
	return out, err
}

func (r *ticketRepository) List(_ context.Context, filter domain.TicketFilter) ([]*domain.ServiceTicket, error) {
	text := strings.ToLower(strings.TrimSpace(filter.Text))
	tickets := []*domain.ServiceTicket{}
	err := r.v.read(func(s *state) error {
		for _, ticket := range s.tickets {
			if text != "" &&
				!strings.Contains(strings.ToLower(ticket.ModelName), text) &&
				!strings.Contains(strings.ToLower(ticket.CustomerName), text) &&
				!strings.Contains(strings.ToLower(ticket.PhoneNumber), text) &&
				!strings.Contains(strings.ToLower(ticket.Problem), text) {
				continue
			}
			if !filter.From.IsZero() && ticket.ServiceDate.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ticket.ServiceDate.After(filter.To) {
				continue
			}
			if filter.Status != "" && ticket.Status != filter.Status {
				continue
			}
			t := ticket
			tickets = append(tickets, &t)
		}
		return nil
	})
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].ServiceDate.Equal(tickets[j].ServiceDate) {
			return tickets[i].ServiceDate.After(tickets[j].ServiceDate)
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, err
}

type staffRepository struct{ v *view }

func (r *staffRepository) Create(_ context.Context, staff *domain.Staff) error {
	return r.v.write(func(s *state) error {
		for _, existing := range s.staff {
			if existing.Username == staff.Username {
				return repository.ErrStaffAlreadyExists
			}
		}
		s.staff[staff.ID] = *staff
		return nil
	})
}

func (r *staffRepository) FindByUsername(_ context.Context, username string) (*domain.Staff, error) {
	var out *domain.Staff
	err := r.v.read(func(s *state) error {
		for _, staff := range s.staff {
			if staff.Username == username {
				st := staff
				out = &st
				return nil
			}
		}
		return repository.ErrStaffNotFound
	})
	return out, err
}

func (r *staffRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Staff, error) {
	var out *domain.Staff
	err := r.v.read(func(s *state) error {
		staff, ok := s.staff[id]
		if !ok {
			return repository.ErrStaffNotFound
		}
		out = &staff
		return nil
	})
	return out, err
}

type categoryRepository struct{ v *view }

func (r *categoryRepository) List(_ context.Context) ([]*domain.CategoryInfo, error) {
	categories := []*domain.CategoryInfo{}
	err := r.v.read(func(s *state) error {
		for _, c := range s.categories {
			cat := c
			categories = append(categories, &cat)
		}
		return nil
	})
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, err
}

func (r *categoryRepository) FindByName(_ context.Context, name domain.Category) (*domain.CategoryInfo, error) {
	var out *domain.CategoryInfo
	err := r.v.read(func(s *state) error {
		c, ok := s.categories[name]
		if !ok {
			return repository.ErrCategoryNotFound
		}
		out = &c
		return nil
	})
	return out, err
}
