// Package publish turns a bundle release into a distributable player
// archive and uploads manifests to remote storage.
//
// PublishPlayerBundle assembles the working directory
// <build_dir>/player-<bundleId> from the code artifact, the manifests of
// every episode and the payloads the manifests reference, then zips it.
// Manifests are serialized with the configured metadata format.
package publish
