// Package app wires the application together: it checks the ffmpeg installation,
// builds the CUE decoder, sheet cache, template manager, tag processor and prompter,
// and runs the splitter over the requested directory.
package app
