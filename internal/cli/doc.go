// Package cli is the command-line surface of voxelflow. It translates flags
// into the application's configuration, runs the compile, eval and dump
// commands against an app.App and maps failures to process exit codes.
package cli
