package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сетка
	AttrGridWidth   = "grid.width"
	AttrGridHeight  = "grid.height"
	AttrGridBlocked = "grid.blocked_ratio"
	AttrGridHash    = "grid.hash"

	// Запрос
	AttrAlgorithm = "search.algorithm"
	AttrStart     = "search.start"
	AttrGoal      = "search.goal"
	AttrSmoothing = "search.smoothing"

	// Результат
	AttrFound       = "search.found"
	AttrLength      = "search.length"
	AttrSettled     = "search.settled"
	AttrWaypoints   = "search.waypoints"
	AttrReallocated = "search.reallocated"
	AttrCacheHit    = "search.cache_hit"

	// Граф видимости
	AttrGraphNodes = "visibility_graph.nodes"
	AttrGraphEdges = "visibility_graph.edges"
)

// GridAttributes возвращает атрибуты сетки
func GridAttributes(width, height int, blockedRatio float64, hash string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGridWidth, width),
		attribute.Int(AttrGridHeight, height),
		attribute.Float64(AttrGridBlocked, blockedRatio),
		attribute.String(AttrGridHash, hash),
	}
}

// QueryAttributes возвращает атрибуты запроса; точки в виде [x, y]
func QueryAttributes(algorithm string, sx, sy, gx, gy int, smoothing string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, algorithm),
		attribute.IntSlice(AttrStart, []int{sx, sy}),
		attribute.IntSlice(AttrGoal, []int{gx, gy}),
		attribute.String(AttrSmoothing, smoothing),
	}
}

// ResultAttributes возвращает атрибуты результата поиска
func ResultAttributes(found bool, length float64, settled, waypoints int, reallocated bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrFound, found),
		attribute.Int(AttrSettled, settled),
		attribute.Int(AttrWaypoints, waypoints),
		attribute.Bool(AttrReallocated, reallocated),
	}
	// +Inf для ненайденного пути не пишем
	if found {
		attrs = append(attrs, attribute.Float64(AttrLength, length))
	}
	return attrs
}

// GraphAttributes возвращает атрибуты графа видимости
func GraphAttributes(nodes, edges int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
	}
}
