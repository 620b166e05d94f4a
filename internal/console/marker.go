package console

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ForceEndMarker 页面离开导致巡查被强制结束的本地记录
type ForceEndMarker struct {
	PatrolID  int64     `yaml:"patrol_id"`
	Timestamp time.Time `yaml:"timestamp"`
}

// MarkerStore 强制结束标记的持久化，仅此一个键跨重启存活
type MarkerStore interface {
	// Load 不存在时返回 nil, nil
	Load() (*ForceEndMarker, error)
	Save(m ForceEndMarker) error
	Clear() error
}

// FileMarkerStore 以 YAML 文件保存标记
type FileMarkerStore struct {
	path string
}

// NewFileMarkerStore 创建文件标记存储
func NewFileMarkerStore(path string) *FileMarkerStore {
	return &FileMarkerStore{path: path}
}

// Path 标记文件路径
func (s *FileMarkerStore) Path() string { return s.path }

// Load 读取标记
func (s *FileMarkerStore) Load() (*ForceEndMarker, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取强制结束标记失败: %w", err)
	}

	var m ForceEndMarker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("解析强制结束标记失败: %w", err)
	}
	return &m, nil
}

// Save 同步写入标记（先写临时文件再改名）
func (s *FileMarkerStore) Save(m ForceEndMarker) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("序列化强制结束标记失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("创建标记目录失败: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("写入强制结束标记失败: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("写入强制结束标记失败: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("写入强制结束标记失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("写入强制结束标记失败: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Clear 删除标记
func (s *FileMarkerStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除强制结束标记失败: %w", err)
	}
	return nil
}

// MemoryMarkerStore 内存标记存储，用于测试与无盘环境
type MemoryMarkerStore struct {
	mu     sync.Mutex
	marker *ForceEndMarker
}

// Load 读取标记
func (s *MemoryMarkerStore) Load() (*ForceEndMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return nil, nil
	}
	m := *s.marker
	return &m, nil
}

// Save 写入标记
func (s *MemoryMarkerStore) Save(m ForceEndMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = &m
	return nil
}

// Clear 删除标记
func (s *MemoryMarkerStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = nil
	return nil
}
