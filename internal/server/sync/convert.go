package sync

import (
	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/pkg/api"
)

func spaceToAPI(s *models.Space) api.Space {
	return api.Space{
		ID:               s.ID,
		Name:             s.Name,
		Icon:             s.Icon,
		Color:            s.Color,
		Order:            s.Order,
		IsVisible:        s.Visible,
		LastWriterDevice: s.LastWriterDevice,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		DeletedAt:        s.DeletedAt,
	}
}

func categoryToAPI(c *models.Category) api.Category {
	return api.Category{
		ID:               c.ID,
		SpaceID:          c.SpaceID,
		Name:             c.Name,
		Icon:             c.Icon,
		Color:            c.Color,
		Order:            c.Order,
		IsVisible:        c.Visible,
		LastWriterDevice: c.LastWriterDevice,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		DeletedAt:        c.DeletedAt,
	}
}

func itemToAPI(i *models.Item) api.Item {
	return api.Item{
		ID:               i.ID,
		SpaceID:          i.SpaceID,
		CategoryID:       i.CategoryID,
		Title:            i.Title,
		Description:      i.Description,
		Notes:            i.Notes,
		Priority:         i.Priority,
		Tags:             i.Tags,
		Order:            i.Order,
		IsCompleted:      i.Completed,
		CompletedAt:      i.CompletedAt,
		DueDate:          i.DueDate,
		LastWriterDevice: i.LastWriterDevice,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
		DeletedAt:        i.DeletedAt,
	}
}

// The slice converters always return non-nil slices so empty result
// sets encode as [] rather than null.

func SpacesToAPI(spaces []*models.Space) []api.Space {
	out := make([]api.Space, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, spaceToAPI(s))
	}
	return out
}

func CategoriesToAPI(categories []*models.Category) []api.Category {
	out := make([]api.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryToAPI(c))
	}
	return out
}

func ItemsToAPI(items []*models.Item) []api.Item {
	out := make([]api.Item, 0, len(items))
	for _, i := range items {
		out = append(out, itemToAPI(i))
	}
	return out
}

// DevicesToAPI converts the device registry for the debug surface.
func DevicesToAPI(devices []*models.Device) []api.Device {
	out := make([]api.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, api.Device{
			DeviceID:    d.DeviceID,
			DisplayName: d.DisplayName,
			LastSyncAt:  d.LastSyncAt,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out
}
