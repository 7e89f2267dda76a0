// Package registry 定义镜像仓库类型目录（类型标识、展示名称、图标）
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Type 镜像仓库类型标识
type Type string

const (
	DockerHub               Type = "docker_hub"
	Quay                    Type = "quay"
	AzureContainerRegistry  Type = "azure_container_registry"
	GitLab                  Type = "gitlab"
	GoogleContainerRegistry Type = "google_container_registry"
	DockerPrivateRegistry   Type = "docker_private_registry"
	Harbor                  Type = "harbor"
	JFrogContainerRegistry  Type = "jfrog_container_registry"
	AmazonECR               Type = "amazon_ecr"
)

// GenericIcon 未知类型使用的通用图标
const GenericIcon = "generic"

// ErrUnknownRegistryType 仓库类型不在目录中
var ErrUnknownRegistryType = errors.New("未知的镜像仓库类型")

// Info 仓库类型的展示信息
type Info struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// catalog 顺序即页面的默认展示顺序
var catalog = []Info{
	{Type: DockerHub, Name: "Docker Hub", Icon: "docker"},
	{Type: Quay, Name: "Quay", Icon: "quay"},
	{Type: AzureContainerRegistry, Name: "Azure Container Registry", Icon: "azure"},
	{Type: GitLab, Name: "Gitlab", Icon: "gitlab"},
	{Type: GoogleContainerRegistry, Name: "Google Container Registry", Icon: "gcr"},
	{Type: DockerPrivateRegistry, Name: "Docker Private Registry", Icon: "docker-private"},
	{Type: Harbor, Name: "Harbor", Icon: "harbor"},
	{Type: JFrogContainerRegistry, Name: "JFrog", Icon: "jfrog"},
	{Type: AmazonECR, Name: "Amazon ECR", Icon: "ecr"},
}

var byType = func() map[Type]Info {
	m := make(map[Type]Info, len(catalog))
	for _, info := range catalog {
		m[info.Type] = info
	}
	return m
}()

// All 按展示顺序返回全部仓库类型
func All() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup 查找仓库类型，未知类型返回 ErrUnknownRegistryType
func Lookup(t string) (Info, error) {
	info, ok := byType[Type(t)]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownRegistryType, t)
	}
	return info, nil
}

// Describe 查找展示信息，未知类型返回以原始标识命名的通用占位
func Describe(t string) (Info, bool) {
	if info, err := Lookup(t); err == nil {
		return info, true
	}
	name := strings.TrimSpace(t)
	if name == "" {
		name = "Unknown"
	}
	return Info{Type: Type(t), Name: name, Icon: GenericIcon}, false
}

// Order 返回类型在目录中的位置，未知类型排在最后
func Order(t string) int {
	for i, info := range catalog {
		if string(info.Type) == t {
			return i
		}
	}
	return len(catalog)
}

// Validate 校验类型标识
func Validate(t string) error {
	_, err := Lookup(t)
	return err
}
