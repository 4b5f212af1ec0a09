package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/cql"
)

type EntityInfo struct {
	ID         ecs.EntityId
	Parent     ecs.EntityId
	Components []string
}

// collectEntities lists the live entities matching filter, or every live
// entity when filter is nil.
func collectEntities(storage *ecs.Storage, filter cql.Filter) []EntityInfo {
	registry := storage.Registry()
	entities := make([]EntityInfo, 0, storage.Count())
	for e := range storage.Entities() {
		mask, _ := storage.Mask(e)
		if filter != nil && !filter.Match(mask) {
			continue
		}
		info := EntityInfo{ID: e, Components: make([]string, 0, mask.Count())}
		if parent, ok := storage.Parent(e); ok {
			info.Parent = parent
		}
		for id := range mask.Ids() {
			info.Components = append(info.Components, registry.Name(id))
		}
		entities = append(entities, info)
	}
	return entities
}

// EntityBrowser lists entities, optionally narrowed by a cql expression.
type EntityBrowser struct {
	filterText string
	compiled   string
	filter     cql.Filter
	filterErr  error

	entities      []EntityInfo
	lastCount     int
	dirty         bool
	sortColumn    int
	sortAscending bool

	pageSize int
	page     int
	selected ecs.EntityId
}

func NewEntityBrowser(pageSize int) *EntityBrowser {
	return &EntityBrowser{
		sortAscending: true,
		pageSize:      pageSize,
		dirty:         true,
	}
}

// SetFilter compiles expr against the storage registry. An empty expression
// clears the filter. On error the previous filter stays in effect.
func (eb *EntityBrowser) SetFilter(storage *ecs.Storage, expr string) error {
	eb.filterText = expr
	eb.compiled = expr
	if strings.TrimSpace(expr) == "" {
		eb.filter, eb.filterErr = nil, nil
		eb.dirty = true
		return nil
	}
	filter, err := cql.Compile(expr, storage.Registry())
	eb.filterErr = err
	if err != nil {
		return err
	}
	eb.filter = filter
	eb.dirty = true
	return nil
}

// Entities returns the cached rows, refreshing them if the entity count
// changed or the filter was replaced.
func (eb *EntityBrowser) Entities(storage *ecs.Storage) []EntityInfo {
	if eb.dirty || eb.lastCount != storage.Count() {
		eb.entities = collectEntities(storage, eb.filter)
		eb.lastCount = storage.Count()
		eb.dirty = false
		eb.sortEntities()
	}
	return eb.entities
}

func (eb *EntityBrowser) Selected() ecs.EntityId {
	return eb.selected
}

func (eb *EntityBrowser) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.InputTextWithHint("##filter", "CONTAINS(Transform) & !CONTAINS(Hidden)", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Apply") && eb.filterText != eb.compiled {
		_ = eb.SetFilter(storage, eb.filterText)
	}
	imgui.SameLine()
	if imgui.Button("Clear") {
		_ = eb.SetFilter(storage, "")
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		eb.dirty = true
	}
	if eb.filterErr != nil {
		imgui.Text("filter: " + eb.filterErr.Error())
	}

	entities := eb.Entities(storage)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Parent")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.sortColumn = int(spec.ColumnIndex())
			eb.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			eb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
		}

		start := min(eb.page*eb.pageSize, len(entities))
		end := min(start+eb.pageSize, len(entities))
		for _, entity := range entities[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(entity.ID.String(), eb.selected == entity.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = entity.ID
			}

			imgui.TableNextColumn()
			if entity.Parent.IsZero() {
				imgui.Text("-")
			} else {
				imgui.Text(entity.Parent.String())
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.Components, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(entity.Components)))
		}

		imgui.EndTable()
	}

	if len(entities) > eb.pageSize {
		totalPages := (len(entities) + eb.pageSize - 1) / eb.pageSize
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.page+1, totalPages, len(entities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.page > 0 {
			eb.page--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.page < totalPages-1 {
			eb.page++
		}
	} else {
		eb.page = 0
		imgui.Text(fmt.Sprintf("Total: %d entities", len(entities)))
	}

	imgui.End()
}

func (eb *EntityBrowser) sortEntities() {
	slices.SortStableFunc(eb.entities, func(a, b EntityInfo) int {
		var c int
		switch eb.sortColumn {
		case 1:
			c = cmp.Compare(a.Parent, b.Parent)
		case 2:
			c = strings.Compare(strings.Join(a.Components, ","), strings.Join(b.Components, ","))
		case 3:
			c = cmp.Compare(len(a.Components), len(b.Components))
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if !eb.sortAscending {
			return -c
		}
		return c
	})
}
