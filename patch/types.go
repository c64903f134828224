package patch

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationTest    = "test"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}
