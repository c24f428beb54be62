package storer

type Distance string

const (
	Cosine Distance = "Cosine"
	Euclid Distance = "Euclid"
	Dot    Distance = "Dot"
)

func (d Distance) Valid() bool {
	switch d {
	case Cosine, Euclid, Dot:
		return true
	default:
		return false
	}
}

type Collection struct {
	Name      string
	Dimension int
	Distance  Distance
}

type Point struct {
	Id      string
	Vector  []float32
	Payload map[string]any
}

type Record struct {
	Id      string
	Score   float64
	Payload map[string]any
}
