// Package ffmpeg maps track extraction requests to ffmpeg command lines
// and runs the ffmpeg binary.
package ffmpeg
