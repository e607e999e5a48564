package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or unsupported resource. */
	ResourceTypeNone ResourceType = iota
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Animation manifest resource type. */
	ResourceTypeAnimationManifest
	/** @brief Engine configuration resource type. */
	ResourceTypeConfig
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeImage:
		return "image"
	case ResourceTypeAnimationManifest:
		return "animation_manifest"
	case ResourceTypeConfig:
		return "config"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
