package assets

import "github.com/spaghettifunk/lumen/engine/assets/loaders"

type Loader interface {
	Load(path string, params interface{}) (*loaders.Resource, error) // `interface{}` here allows loaders to take various parameter types
}
