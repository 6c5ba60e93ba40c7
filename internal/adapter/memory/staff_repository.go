package memory

import (
	"context"

	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

// DemoStaff is the lounge's demo roster.
func DemoStaff() []domain.User {
	return []domain.User{
		{ID: "user-1", Name: "Alex Runner", Role: domain.RoleRunner},
		{ID: "user-2", Name: "Sam Supervisor", Role: domain.RoleSupervisor},
		{ID: "user-3", Name: "Morgan Manager", Role: domain.RoleManager},
		{ID: "user-4", Name: "Casey Owner", Role: domain.RoleOwner},
	}
}

// staffRepository is a read-only roster fixed at construction.
type staffRepository struct {
	users []domain.User
}

func NewStaffRepository(users ...domain.User) interfaces.StaffRepository {
	cp := make([]domain.User, len(users))
	copy(cp, users)
	return &staffRepository{users: cp}
}

func (r *staffRepository) FindByID(_ context.Context, id string) (domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, &domain.NotFoundError{Resource: "user", ID: id}
}

func (r *staffRepository) ListAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}
