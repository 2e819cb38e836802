package cache

import "fmt"

// KeyActiveDataset holds the fingerprint of the dataset the cache serves.
const KeyActiveDataset = "dataset:active"

func KeyMetrics(fingerprint string) string {
	return fmt.Sprintf("ds:%s:metrics", fingerprint)
}

// KeyScene addresses one rendered artifact of one scene.
func KeyScene(fingerprint, sceneKey, format string) string {
	return fmt.Sprintf("ds:%s:scene:%s:%s", fingerprint, format, sceneKey)
}

// PatternDataset matches every key of a dataset.
func PatternDataset(fingerprint string) string {
	return fmt.Sprintf("ds:%s:*", fingerprint)
}
