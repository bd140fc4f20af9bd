package service

// warehouseTake сколько единиц списывается с конкретного склада.
type warehouseTake struct {
	WarehouseID uint
	Quantity    int64
}

// planCascade проходит склады в порядке приоритета и с каждого берёт
// min(остаток, сколько ещё нужно). Склады с нулевым или отрицательным
// остатком пропускаются. Возвращает план и то, что покрыть не удалось.
func planCascade(priority []uint, stock map[uint]int64, qty int64) ([]warehouseTake, int64) {
	remaining := qty
	var plan []warehouseTake
	for _, wid := range priority {
		if remaining <= 0 {
			break
		}
		avail := stock[wid]
		if avail <= 0 {
			continue
		}
		take := min(avail, remaining)
		plan = append(plan, warehouseTake{WarehouseID: wid, Quantity: take})
		remaining -= take
	}
	return plan, remaining
}

// mergeLines схлопывает повторяющиеся товары, сохраняя порядок первого появления.
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, invalid("items", "at least one item required")
	}
	idx := make(map[uint]int, len(lines))
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == 0 {
			return nil, invalid("product_id", "required")
		}
		if l.Quantity <= 0 {
			return nil, invalid("quantity", "must be > 0")
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
