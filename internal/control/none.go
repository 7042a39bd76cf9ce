package control

type None struct{}

func NewNone() *None { return &None{} }

func (*None) Update(err, dt float64) float64 { return 0 }
func (*None) Reset()                         {}
func (*None) Suppress(bool)                  {}
func (*None) Params() map[string]float64     { return map[string]float64{} }
